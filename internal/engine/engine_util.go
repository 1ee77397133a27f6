package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

var teamLabels = []string{"🔴", "🔵", "🟢", "🟡", "🟣", "🟠", "🟤"}

// TeamLabel is the display name of the i-th lobby team.
func TeamLabel(i int) string {
	if i >= 0 && i < len(teamLabels) {
		return teamLabels[i]
	}
	return fmt.Sprintf("Team %d", i+1)
}

// Standing is one team's accumulated time. Less time is better.
type Standing struct {
	Team    string
	Members [TeamSize]Player
	Elapsed time.Duration
	Leading bool
}

func standings(teams []*team) []Standing {
	out := make([]Standing, 0, len(teams))
	for _, t := range teams {
		out = append(out, Standing{Team: TeamLabel(t.label), Members: t.members, Elapsed: t.elapsed})
	}
	if len(out) == 0 {
		return out
	}
	best := slices.MinFunc(out, func(a, b Standing) int { return cmp.Compare(a.Elapsed, b.Elapsed) }).Elapsed
	for i := range out {
		out[i].Leading = out[i].Elapsed == best
	}
	return out
}

func formatStandings(ss []Standing) string {
	var b strings.Builder
	for i, s := range ss {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s & %s: %s", s.Team, s.Members[0].Name, s.Members[1].Name, formatElapsed(s.Elapsed))
		if s.Leading {
			b.WriteString(" 🏆")
		}
	}
	return b.String()
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// Status renders the roster: team members in the lobby, members and times
// once playing.
func (r *Room) Status() string {
	switch s := r.state.(type) {
	case *lobbyState:
		teams, _ := r.LobbyTeams()
		var b strings.Builder
		for i, members := range teams {
			if i > 0 {
				b.WriteByte('\n')
			}
			names := make([]string, 0, len(members))
			for _, p := range members {
				names = append(names, p.Name)
			}
			if len(names) == 0 {
				names = append(names, "-")
			}
			fmt.Fprintf(&b, "%s: %s", TeamLabel(i), strings.Join(names, ", "))
		}
		return b.String()
	case *playingState:
		return fmt.Sprintf("Round %d/%d\n%s", s.round+1, r.cfg.Rounds, formatStandings(standings(s.teams)))
	case *finishedState:
		return "Game finished!\n" + formatStandings(standings(s.teams))
	default:
		return ""
	}
}
