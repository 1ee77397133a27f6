package game

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/thegreathir/jigarpich/internal/engine"
	"github.com/thegreathir/jigarpich/internal/hub"
)

// resolve looks up a room and tells p when the code is wrong.
func (o *Orchestrator) resolve(ctx context.Context, id hub.RoomID, p engine.Player) (*hub.Handle, error) {
	hd, err := o.hub.Get(ctx, id)
	if errors.Is(err, hub.ErrRoomNotFound) {
		o.send(ctx, p.ID, "Room number is wrong!", nil)
	}
	return hd, err
}

func (o *Orchestrator) Join(ctx context.Context, id hub.RoomID, p engine.Player) error {
	hd, err := o.resolve(ctx, id, p)
	if err != nil {
		return err
	}

	var roster []engine.Player
	var teams int
	err = hd.Do(func(r *engine.Room) error {
		var err error
		roster, teams, err = r.Join(p)
		return err
	})
	switch {
	case errors.Is(err, engine.ErrAlreadyJoined):
		o.send(ctx, p.ID, "You've already joined!", nil)
		return err
	case errors.Is(err, engine.ErrJoinAfterPlay):
		o.send(ctx, p.ID, "Game has started. You can't join anymore!", nil)
		return err
	case err != nil:
		return err
	}

	o.broadcast(ctx, except(roster, p.ID), fmt.Sprintf("%s joined room", p.Name))
	o.send(ctx, p.ID, "Choose your team", lobbyKeyboard(id, teams))
	return nil
}

func (o *Orchestrator) ChooseTeam(ctx context.Context, id hub.RoomID, p engine.Player, team int) error {
	hd, err := o.resolve(ctx, id, p)
	if err != nil {
		return err
	}

	var roster []engine.Player
	err = hd.Do(func(r *engine.Room) error {
		var err error
		roster, err = r.ChooseTeam(p.ID, team)
		return err
	})
	switch {
	case errors.Is(err, engine.ErrTeamChangeAfterPlay):
		o.send(ctx, p.ID, "Game has started. You can't change your team anymore!", nil)
		return err
	case errors.Is(err, engine.ErrNotJoinedToRoom):
		o.send(ctx, p.ID, "You haven't joined this room!", nil)
		return err
	case errors.Is(err, engine.ErrNoSuchTeam):
		o.send(ctx, p.ID, "No such team!", nil)
		return err
	case err != nil:
		return err
	}

	o.broadcast(ctx, roster, fmt.Sprintf("%s joined %s", p.Name, engine.TeamLabel(team)))
	return nil
}

func (o *Orchestrator) ShowTeams(ctx context.Context, id hub.RoomID, p engine.Player) error {
	status, err := o.Status(ctx, id)
	if errors.Is(err, hub.ErrRoomNotFound) {
		o.send(ctx, p.ID, "Room number is wrong!", nil)
	}
	if err != nil {
		return err
	}
	o.send(ctx, p.ID, status, nil)
	return nil
}

// Play starts the game and hands the first describer the start button.
func (o *Orchestrator) Play(ctx context.Context, id hub.RoomID, p engine.Player) error {
	hd, err := o.resolve(ctx, id, p)
	if err != nil {
		return err
	}

	var first engine.Player
	var players []engine.Player
	err = hd.Do(func(r *engine.Room) error {
		var err error
		if first, err = r.StartGame(); err != nil {
			return err
		}
		players = r.Players()
		return nil
	})
	switch {
	case errors.Is(err, engine.ErrNotBalancedTeams):
		o.send(ctx, p.ID, "Teams are not balanced", nil)
		return err
	case errors.Is(err, engine.ErrAlreadyPlaying):
		o.send(ctx, p.ID, "Game has already started!", nil)
		return err
	case err != nil:
		return err
	}

	o.log.Info("game started", zap.Stringer("room", id), zap.String("describer", string(first.ID)))
	o.broadcast(ctx, players, fmt.Sprintf("Game has started. %s should start the first round!", first.Name))
	o.sendStartPrompt(ctx, hd, 0, first)
	return nil
}

func (o *Orchestrator) sendStartPrompt(ctx context.Context, hd *hub.Handle, round int, to engine.Player) {
	if prompt, ok := o.send(ctx, to.ID, "Start round", startKeyboard(hd.ID)); ok {
		o.record(hd, round, prompt)
	}
}
