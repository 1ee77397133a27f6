// Package onboarding runs the question/answer dialogue that collects a room
// configuration from its creator.
package onboarding

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/thegreathir/jigarpich/internal/engine"
)

type step int

const (
	askTeams step = iota
	askRounds
	askDuration
	askTaboo
)

const (
	QuestionTeams    = "How many teams are going to play?\n(2 to 7)"
	QuestionRounds   = "How many rounds are you going to play?\n(1 to 7)"
	QuestionDuration = "How long is each round?\n(in minutes up to 10)"
	QuestionTaboo    = "Should add taboo words? (\"Yes\" or \"No\")"

	notANumber = "Please send a number!"
	notYesNo   = "Please send \"Yes\" or \"No\""
)

type dialogue struct {
	step step
	cfg  engine.Config
}

// Dialogues tracks one in-progress dialogue per user.
type Dialogues struct {
	mu     sync.Mutex
	active map[engine.PlayerID]*dialogue
}

func New() *Dialogues {
	return &Dialogues{active: make(map[engine.PlayerID]*dialogue)}
}

// Start begins (or restarts) a dialogue and returns the first question.
func (d *Dialogues) Start(id engine.PlayerID) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active[id] = &dialogue{step: askTeams}
	return QuestionTeams
}

func (d *Dialogues) Active(id engine.PlayerID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.active[id]
	return ok
}

func (d *Dialogues) Cancel(id engine.PlayerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.active, id)
}

// Answer feeds one reply into id's dialogue. It returns the next message for
// the user; once the last question is answered done is true and cfg holds the
// collected configuration. Invalid answers repeat the current step.
func (d *Dialogues) Answer(id engine.PlayerID, text string) (reply string, cfg engine.Config, done bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dl, ok := d.active[id]
	if !ok {
		return "", engine.Config{}, false
	}
	text = strings.TrimSpace(text)

	switch dl.step {
	case askTeams:
		n, ok := parseNumber(text)
		if !ok {
			return notANumber, engine.Config{}, false
		}
		if n < engine.MinTeams || n > engine.MaxTeams {
			return fmt.Sprintf("Number of teams should be between %d and %d", engine.MinTeams, engine.MaxTeams), engine.Config{}, false
		}
		dl.cfg.Teams = n
		dl.step = askRounds
		return QuestionRounds, engine.Config{}, false

	case askRounds:
		n, ok := parseNumber(text)
		if !ok {
			return notANumber, engine.Config{}, false
		}
		if n < engine.MinRounds || n > engine.MaxRounds {
			return fmt.Sprintf("Number of rounds should be between %d and %d", engine.MinRounds, engine.MaxRounds), engine.Config{}, false
		}
		dl.cfg.Rounds = n
		dl.step = askDuration
		return QuestionDuration, engine.Config{}, false

	case askDuration:
		n, ok := parseNumber(text)
		if !ok {
			return notANumber, engine.Config{}, false
		}
		dur := time.Duration(n) * time.Minute
		if dur < engine.MinRoundLength || dur > engine.MaxRoundLength {
			return "Round duration should be between 1 minute and 10 minutes", engine.Config{}, false
		}
		dl.cfg.RoundDuration = dur
		dl.step = askTaboo
		return QuestionTaboo, engine.Config{}, false

	default:
		switch text {
		case "yes", "Yes", "y", "Y":
			dl.cfg.TabooWords = true
		case "no", "No", "n", "N":
			dl.cfg.TabooWords = false
		default:
			return notYesNo, engine.Config{}, false
		}
		delete(d.active, id)
		return Summary(dl.cfg), dl.cfg, true
	}
}

// Summary describes a finished configuration.
func Summary(cfg engine.Config) string {
	taboo := "disabled"
	if cfg.TabooWords {
		taboo = "enabled"
	}
	return fmt.Sprintf("You are going to play %d rounds with %d teams, each round will last %d minutes.\nTaboo words are %s.",
		cfg.Rounds, cfg.Teams, int(cfg.RoundDuration/time.Minute), taboo)
}

func parseNumber(s string) (int, bool) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
