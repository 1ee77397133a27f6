// Package bot turns inbound player input (text commands, dialogue answers and
// button presses) into game actions.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/thegreathir/jigarpich/internal/command"
	"github.com/thegreathir/jigarpich/internal/engine"
	"github.com/thegreathir/jigarpich/internal/game"
	"github.com/thegreathir/jigarpich/internal/hub"
	"github.com/thegreathir/jigarpich/internal/onboarding"
)

const HelpText = "These commands are supported:\n" +
	"/help - Display this text\n" +
	"/new - Create new room\n" +
	"/join <room> - Join a room"

var ErrUnknownCommand = errors.New("unknown command")

// Game is the set of use cases the router dispatches to.
type Game interface {
	CreateRoom(ctx context.Context, cfg engine.Config) (hub.RoomID, error)
	Join(ctx context.Context, id hub.RoomID, p engine.Player) error
	ChooseTeam(ctx context.Context, id hub.RoomID, p engine.Player, team int) error
	ShowTeams(ctx context.Context, id hub.RoomID, p engine.Player) error
	Play(ctx context.Context, id hub.RoomID, p engine.Player) error
	StartRound(ctx context.Context, id hub.RoomID, p engine.Player) error
	Correct(ctx context.Context, id hub.RoomID, p engine.Player) error
	Skip(ctx context.Context, id hub.RoomID, p engine.Player) error
}

type Router struct {
	game      Game
	msg       game.Messenger
	dialogues *onboarding.Dialogues
	log       *zap.Logger
}

func NewRouter(g Game, m game.Messenger, log *zap.Logger) *Router {
	return &Router{game: g, msg: m, dialogues: onboarding.New(), log: log}
}

// HandleText processes a typed message.
func (r *Router) HandleText(ctx context.Context, p engine.Player, text string) error {
	text = strings.TrimSpace(text)
	fields := strings.Fields(text)

	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		switch fields[0] {
		case "/help", "/start":
			return r.reply(ctx, p, HelpText)
		case "/new":
			return r.reply(ctx, p, r.dialogues.Start(p.ID))
		case "/join":
			if len(fields) != 2 {
				return r.reply(ctx, p, "Usage: /join <room>")
			}
			id, err := hub.ParseRoomID(fields[1])
			if err != nil {
				return r.reply(ctx, p, "Room number is wrong!")
			}
			return r.settle(r.game.Join(ctx, id, p))
		default:
			if err := r.reply(ctx, p, HelpText); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
		}
	}

	if !r.dialogues.Active(p.ID) {
		return r.reply(ctx, p, HelpText)
	}

	reply, cfg, done := r.dialogues.Answer(p.ID, text)
	if err := r.reply(ctx, p, reply); err != nil {
		return err
	}
	if !done {
		return nil
	}

	id, err := r.game.CreateRoom(ctx, cfg)
	if err != nil {
		return err
	}
	if err := r.reply(ctx, p, "Room created! Forward following message to join:"); err != nil {
		return err
	}
	return r.reply(ctx, p, fmt.Sprintf("/join %s", id))
}

// HandleCallback processes a button press.
func (r *Router) HandleCallback(ctx context.Context, p engine.Player, data string) error {
	c, err := command.Parse(data)
	if err != nil {
		return err
	}

	switch c.Kind {
	case command.Join:
		err = r.game.ChooseTeam(ctx, c.Room, p, c.Team)
	case command.GetTeams:
		err = r.game.ShowTeams(ctx, c.Room, p)
	case command.Play:
		err = r.game.Play(ctx, c.Room, p)
	case command.Start:
		err = r.game.StartRound(ctx, c.Room, p)
	case command.Correct:
		err = r.game.Correct(ctx, c.Room, p)
	case command.Skip:
		err = r.game.Skip(ctx, c.Room, p)
	}
	return r.settle(err)
}

func (r *Router) reply(ctx context.Context, p engine.Player, text string) error {
	_, err := r.msg.Send(ctx, p.ID, text, nil)
	return err
}

// settle swallows the rule violations the game already reported to the
// player.
func (r *Router) settle(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		hub.ErrRoomNotFound,
		engine.ErrAlreadyJoined,
		engine.ErrNotJoinedToRoom,
		engine.ErrJoinAfterPlay,
		engine.ErrTeamChangeAfterPlay,
		engine.ErrAlreadyPlaying,
		engine.ErrNotBalancedTeams,
		engine.ErrIsNotPlaying,
		engine.ErrNoSuchTeam,
		engine.ErrRoundInProgress,
	} {
		if errors.Is(err, known) {
			r.log.Debug("action rejected", zap.Error(err))
			return nil
		}
	}
	return err
}
