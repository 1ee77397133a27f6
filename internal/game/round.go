package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thegreathir/jigarpich/internal/engine"
	"github.com/thegreathir/jigarpich/internal/hub"
)

// StartRound restarts the round clock, deals the first word and arms the
// round timers.
func (o *Orchestrator) StartRound(ctx context.Context, id hub.RoomID, p engine.Player) error {
	hd, err := o.resolve(ctx, id, p)
	if err != nil {
		return err
	}

	var (
		a        engine.WordGuessAttempt
		d        dealing
		round    int
		duration time.Duration
	)
	err = hd.Do(func(r *engine.Room) error {
		var err error
		if a, err = r.BeginRound(); err != nil {
			return err
		}
		d = snapshot(r)
		round = r.Round()
		duration = r.Config().RoundDuration
		return nil
	})
	if errors.Is(err, engine.ErrRoundInProgress) {
		o.send(ctx, p.ID, "Round has already started!", nil)
		return err
	}
	if err != nil {
		return err
	}

	o.log.Info("round started", zap.Stringer("room", id), zap.Int("round", round+1))
	o.deliver(ctx, hd, a, d)
	o.scheduleRound(id, round, duration)
	return nil
}

// Correct hands the turn to the next team.
func (o *Orchestrator) Correct(ctx context.Context, id hub.RoomID, p engine.Player) error {
	return o.advance(ctx, id, p, (*engine.Room).MarkCorrect)
}

// Skip deals another word to the same pair.
func (o *Orchestrator) Skip(ctx context.Context, id hub.RoomID, p engine.Player) error {
	return o.advance(ctx, id, p, (*engine.Room).Skip)
}

func (o *Orchestrator) advance(ctx context.Context, id hub.RoomID, p engine.Player, op func(*engine.Room) (engine.WordGuessAttempt, error)) error {
	hd, err := o.resolve(ctx, id, p)
	if err != nil {
		return err
	}

	var a engine.WordGuessAttempt
	var d dealing
	err = hd.Do(func(r *engine.Room) error {
		var err error
		if a, err = op(r); err != nil {
			return err
		}
		d = snapshot(r)
		return nil
	})
	if err != nil {
		return err
	}

	o.deliver(ctx, hd, a, d)
	return nil
}

// dealing is what deliver needs from the room, read under its lock.
type dealing struct {
	previous    engine.Prompt
	hasPrevious bool
	players     []engine.Player
	round       int
}

func snapshot(r *engine.Room) dealing {
	var d dealing
	d.previous, d.hasPrevious, _ = r.LatestPrompt()
	d.players = r.Players()
	d.round = r.Round()
	return d
}

// deliver clears the old buttons, sends the word to the describer and tells
// everyone else who is playing. A word whose round ended while it was being
// sent loses its button instead of becoming the latest prompt.
func (o *Orchestrator) deliver(ctx context.Context, hd *hub.Handle, a engine.WordGuessAttempt, d dealing) {
	if d.hasPrevious {
		o.clearKeyboard(ctx, d.previous)
	}

	if prompt, ok := o.send(ctx, a.Describer.ID, wordText(a), wordKeyboard(hd.ID, false)); ok {
		if o.record(hd, d.round, prompt) {
			o.sched.AfterFunc(o.skipCooldown, func() { o.offerSkip(hd.ID, prompt) })
		} else {
			o.clearKeyboard(ctx, prompt)
		}
	}
	o.send(ctx, a.Guesser.ID, "🤔", nil)
	o.broadcast(ctx, except(d.players, a.Describer.ID, a.Guesser.ID),
		fmt.Sprintf("%s -> %s\n\t%s", a.Describer.Name, a.Guesser.Name, a.Word))
}

// offerSkip adds the skip button to prompt if it is still the newest one.
func (o *Orchestrator) offerSkip(id hub.RoomID, prompt engine.Prompt) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	hd, err := o.hub.Get(ctx, id)
	if err != nil {
		o.log.Debug("skip offer dropped", zap.Stringer("room", id), zap.Error(err))
		return
	}
	err = hd.Do(func(r *engine.Room) error {
		latest, ok, err := r.LatestPrompt()
		if err != nil {
			return err
		}
		if !ok || latest != prompt {
			return errStale
		}
		return nil
	})
	if err != nil {
		o.log.Debug("skip offer dropped", zap.Stringer("room", id), zap.Error(err))
		return
	}

	if err := o.msg.EditKeyboard(ctx, prompt, wordKeyboard(id, true)); err != nil {
		o.log.Warn("can not add skip button", zap.Stringer("room", id), zap.Error(err))
	}
}

// scheduleRound arms the countdown alerts and the round stop. Each timer
// remembers the round it belongs to and does nothing once that round is over.
func (o *Orchestrator) scheduleRound(id hub.RoomID, round int, duration time.Duration) {
	for _, al := range o.alerts {
		if al.Before > duration {
			continue
		}
		o.sched.AfterFunc(duration-al.Before, func() { o.alert(id, round, al.Text) })
	}
	o.sched.AfterFunc(duration, func() { o.finishRound(id, round) })
}

// current fetches the room and the roster if round is still being played.
func (o *Orchestrator) current(ctx context.Context, id hub.RoomID, round int) (*hub.Handle, []engine.Player, error) {
	hd, err := o.hub.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var players []engine.Player
	err = hd.Do(func(r *engine.Room) error {
		if r.Phase() != engine.PhasePlaying || r.Round() != round {
			return errStale
		}
		players = r.Players()
		return nil
	})
	return hd, players, err
}

func (o *Orchestrator) alert(id hub.RoomID, round int, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	_, players, err := o.current(ctx, id, round)
	if err != nil {
		o.log.Debug("alert dropped", zap.Stringer("room", id), zap.Int("round", round), zap.Error(err))
		return
	}
	o.broadcast(ctx, players, text)
}

// finishRound closes round, then either prompts the next describer or
// finishes the game, removes the room and records the result.
func (o *Orchestrator) finishRound(id hub.RoomID, round int) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	hd, err := o.hub.Get(ctx, id)
	if err != nil {
		o.log.Debug("round stop dropped", zap.Stringer("room", id), zap.Error(err))
		return
	}

	var out engine.RoundOutcome
	var d dealing
	var next int
	err = hd.Do(func(r *engine.Room) error {
		if r.Phase() != engine.PhasePlaying || r.Round() != round {
			return errStale
		}
		d = snapshot(r)
		var err error
		out, err = r.EndRound()
		next = r.Round()
		return err
	})
	if errors.Is(err, errStale) {
		o.log.Debug("round stop dropped", zap.Stringer("room", id), zap.Int("round", round))
		return
	}
	if err != nil {
		o.log.Warn("can not end round", zap.Stringer("room", id), zap.Error(err))
		return
	}

	if d.hasPrevious {
		o.clearKeyboard(ctx, d.previous)
	}

	if out.GameFinished {
		o.broadcast(ctx, d.players, "Game finished!")
		o.broadcast(ctx, d.players, out.Summary)
		if err := o.hub.Remove(ctx, id); err != nil {
			o.log.Warn("can not remove room", zap.Stringer("room", id), zap.Error(err))
		}
		o.log.Info("game finished", zap.Stringer("room", id), zap.Int("rounds", out.TotalRounds))
		if o.rec != nil {
			if err := o.rec.RecordGame(ctx, id.String(), out.TotalRounds, out.Standings); err != nil {
				o.log.Warn("can not record game", zap.Stringer("room", id), zap.Error(err))
			}
		}
		return
	}

	o.broadcast(ctx, d.players, out.Summary)
	o.broadcast(ctx, d.players, fmt.Sprintf("Round has finished! %s should start round %d!", out.NextDescriber.Name, out.Round))
	o.sendStartPrompt(ctx, hd, next, out.NextDescriber)
}
