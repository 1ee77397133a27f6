package engine

import "time"

// TeamSize is the only team size a game can start with.
const TeamSize = 2

type team struct {
	label   int // lobby index, kept for display after the shuffle
	members [TeamSize]Player
	elapsed time.Duration
	turn    int // index of the describing member
}

func (t *team) describer() Player { return t.members[t.turn] }
func (t *team) guesser() Player   { return t.members[1-t.turn] }
func (t *team) flip()             { t.turn = 1 - t.turn }

func (t *team) credit(d time.Duration) {
	if d > 0 {
		t.elapsed += d
	}
}

func nextTeam(active, n int) int {
	return (active + 1) % n
}
