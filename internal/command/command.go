// Package command encodes the actions carried by interactive buttons.
//
// Wire form is "<kind> <room>" or, for team picks, "join <room> <team>".
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thegreathir/jigarpich/internal/hub"
)

var ErrMalformed = errors.New("malformed callback data")

type Kind string

const (
	Join     Kind = "join"
	GetTeams Kind = "get_teams"
	Play     Kind = "play"
	Start    Kind = "start"
	Correct  Kind = "correct"
	Skip     Kind = "skip"
)

type Command struct {
	Kind Kind
	Room hub.RoomID
	Team int // Join only
}

func (c Command) String() string {
	if c.Kind == Join {
		return fmt.Sprintf("%s %s %d", c.Kind, c.Room, c.Team)
	}
	return fmt.Sprintf("%s %s", c.Kind, c.Room)
}

// Serialize is shorthand for building button data.
func Serialize(kind Kind, room hub.RoomID) string {
	return Command{Kind: kind, Room: room}.String()
}

func SerializeJoin(room hub.RoomID, team int) string {
	return Command{Kind: Join, Room: room, Team: team}.String()
}

func Parse(data string) (Command, error) {
	fields := strings.Fields(data)
	if len(fields) < 2 {
		return Command{}, fmt.Errorf("%w: %q", ErrMalformed, data)
	}
	room, err := hub.ParseRoomID(fields[1])
	if err != nil {
		return Command{}, fmt.Errorf("%w: room %q", ErrMalformed, fields[1])
	}

	c := Command{Kind: Kind(fields[0]), Room: room}
	switch c.Kind {
	case Join:
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("%w: %q", ErrMalformed, data)
		}
		team, err := strconv.Atoi(fields[2])
		if err != nil || team < 0 {
			return Command{}, fmt.Errorf("%w: team %q", ErrMalformed, fields[2])
		}
		c.Team = team
	case GetTeams, Play, Start, Correct, Skip:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: %q", ErrMalformed, data)
		}
	default:
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrMalformed, fields[0])
	}
	return c, nil
}
