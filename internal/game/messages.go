package game

import (
	"strings"

	"github.com/thegreathir/jigarpich/internal/command"
	"github.com/thegreathir/jigarpich/internal/engine"
	"github.com/thegreathir/jigarpich/internal/hub"
)

// lobbyKeyboard has one button per team, then "Show Teams" and "Play".
func lobbyKeyboard(id hub.RoomID, teams int) Keyboard {
	row := make([]Button, teams)
	for i := range row {
		row[i] = Button{Label: engine.TeamLabel(i), Data: command.SerializeJoin(id, i)}
	}
	return Keyboard{
		row,
		{{Label: "Show Teams", Data: command.Serialize(command.GetTeams, id)}},
		{{Label: "Play", Data: command.Serialize(command.Play, id)}},
	}
}

func startKeyboard(id hub.RoomID) Keyboard {
	return Keyboard{{{Label: "▶️", Data: command.Serialize(command.Start, id)}}}
}

func wordKeyboard(id hub.RoomID, withSkip bool) Keyboard {
	row := []Button{{Label: "✅", Data: command.Serialize(command.Correct, id)}}
	if withSkip {
		row = append(row, Button{Label: "⏭️", Data: command.Serialize(command.Skip, id)})
	}
	return Keyboard{row}
}

func wordText(a engine.WordGuessAttempt) string {
	if len(a.Taboo) == 0 {
		return a.Word
	}
	var b strings.Builder
	b.WriteString(a.Word)
	b.WriteString("\n")
	for _, t := range a.Taboo {
		b.WriteString("\n🚫 ")
		b.WriteString(t)
	}
	return b.String()
}
