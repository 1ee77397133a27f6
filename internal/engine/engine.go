package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/thegreathir/jigarpich/internal/words"
)

var ErrAlreadyJoined = errors.New("already joined")
var ErrNotJoinedToRoom = errors.New("not joined to room")
var ErrJoinAfterPlay = errors.New("game has started, can't join")
var ErrTeamChangeAfterPlay = errors.New("game has started, can't change team")
var ErrAlreadyPlaying = errors.New("game already started")
var ErrNotBalancedTeams = errors.New("teams are not balanced")
var ErrIsNotPlaying = errors.New("game is not being played")
var ErrNoSuchTeam = errors.New("no such team")
var ErrInvalidConfig = errors.New("invalid room config")
var ErrRoundInProgress = errors.New("round already running")
var ErrStalePrompt = errors.New("prompt belongs to another round")

const (
	MinTeams       = 2
	MaxTeams       = 7
	MinRounds      = 1
	MaxRounds      = 7
	MinRoundLength = time.Minute
	MaxRoundLength = 10 * time.Minute
)

type Config struct {
	Teams         int
	Rounds        int
	RoundDuration time.Duration
	TabooWords    bool
}

func (c Config) Validate() error {
	switch {
	case c.Teams < MinTeams || c.Teams > MaxTeams:
		return fmt.Errorf("%w: teams must be between %d and %d", ErrInvalidConfig, MinTeams, MaxTeams)
	case c.Rounds < MinRounds || c.Rounds > MaxRounds:
		return fmt.Errorf("%w: rounds must be between %d and %d", ErrInvalidConfig, MinRounds, MaxRounds)
	case c.RoundDuration < MinRoundLength || c.RoundDuration > MaxRoundLength:
		return fmt.Errorf("%w: round duration must be between %v and %v", ErrInvalidConfig, MinRoundLength, MaxRoundLength)
	}
	return nil
}

type PlayerID string

type Player struct {
	ID   PlayerID
	Name string
}

// Prompt points at an interactive message delivered to a chat.
type Prompt struct {
	ChatID    string
	MessageID int64
}

// WordSource deals words. *words.Catalog satisfies it.
type WordSource interface {
	Draw() words.Word
	TabooSubset(w words.Word) []string
}

// WordGuessAttempt is one word shown to a describer/guesser pair.
type WordGuessAttempt struct {
	Word      string
	Taboo     []string // empty unless the room uses taboo words
	Describer Player
	Guesser   Player
}

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// state is the closed set of room phases.
type state interface{ phase() Phase }

type lobbyState struct {
	players map[PlayerID]Player
	order   []PlayerID // join order, for stable rosters
	teams   []map[PlayerID]struct{}
}

func (*lobbyState) phase() Phase { return PhaseLobby }

type playingState struct {
	players        []Player
	teams          []*team
	active         int
	round          int
	running        bool // between BeginRound and EndRound
	roundStartedAt time.Time
	prompts        []Prompt
}

func (*playingState) phase() Phase { return PhasePlaying }

type finishedState struct {
	players []Player
	teams   []*team
}

func (*finishedState) phase() Phase { return PhaseFinished }

// Room is one game. It is not safe for concurrent use; callers serialize
// access (see hub.Handle).
type Room struct {
	cfg   Config
	words WordSource
	rng   *rand.Rand
	now   func() time.Time
	state state
}

type Option func(*Room)

func WithRand(r *rand.Rand) Option {
	return func(room *Room) { room.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(room *Room) { room.now = now }
}

// New creates a room in the lobby with cfg.Teams empty teams.
func New(cfg Config, src WordSource, opts ...Option) (*Room, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Room{
		cfg:   cfg,
		words: src,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	teams := make([]map[PlayerID]struct{}, cfg.Teams)
	for i := range teams {
		teams[i] = map[PlayerID]struct{}{}
	}
	r.state = &lobbyState{players: map[PlayerID]Player{}, teams: teams}
	return r, nil
}

func (r *Room) Config() Config { return r.cfg }

func (r *Room) Phase() Phase { return r.state.phase() }

// Join registers p in the lobby and returns the roster and team count.
func (r *Room) Join(p Player) ([]Player, int, error) {
	l, ok := r.state.(*lobbyState)
	if !ok {
		return nil, 0, ErrJoinAfterPlay
	}
	if _, exists := l.players[p.ID]; exists {
		return nil, 0, ErrAlreadyJoined
	}
	l.players[p.ID] = p
	l.order = append(l.order, p.ID)
	return l.roster(), len(l.teams), nil
}

// ChooseTeam moves a joined player into team. Picking the same team twice
// is a no-op on membership.
func (r *Room) ChooseTeam(id PlayerID, team int) ([]Player, error) {
	l, ok := r.state.(*lobbyState)
	if !ok {
		return nil, ErrTeamChangeAfterPlay
	}
	if _, joined := l.players[id]; !joined {
		return nil, ErrNotJoinedToRoom
	}
	if team < 0 || team >= len(l.teams) {
		return nil, ErrNoSuchTeam
	}
	for _, members := range l.teams {
		delete(members, id)
	}
	l.teams[team][id] = struct{}{}
	return l.roster(), nil
}

// StartGame moves a balanced lobby into play and returns the first describer.
func (r *Room) StartGame() (Player, error) {
	l, ok := r.state.(*lobbyState)
	if !ok {
		return Player{}, ErrAlreadyPlaying
	}
	for _, members := range l.teams {
		if len(members) != TeamSize {
			return Player{}, ErrNotBalancedTeams
		}
	}

	teams := make([]*team, 0, len(l.teams))
	for i, members := range l.teams {
		t := &team{label: i}
		n := 0
		for _, id := range l.order {
			if _, in := members[id]; in {
				t.members[n] = l.players[id]
				n++
			}
		}
		teams = append(teams, t)
	}
	r.rng.Shuffle(len(teams), func(i, j int) { teams[i], teams[j] = teams[j], teams[i] })

	p := &playingState{
		players:        l.roster(),
		teams:          teams,
		roundStartedAt: r.now(),
	}
	r.state = p
	return p.teams[0].describer(), nil
}

// BeginRound restarts the round clock and deals a word to the active team.
// A round can only be begun once; EndRound makes the next one available.
func (r *Room) BeginRound() (WordGuessAttempt, error) {
	p, ok := r.state.(*playingState)
	if !ok {
		return WordGuessAttempt{}, ErrIsNotPlaying
	}
	if p.running {
		return WordGuessAttempt{}, ErrRoundInProgress
	}
	p.running = true
	p.roundStartedAt = r.now()
	return r.deal(p), nil
}

// MarkCorrect credits the active team, flips its roles and hands the turn to
// the next team with a fresh word.
func (r *Room) MarkCorrect() (WordGuessAttempt, error) {
	p, ok := r.state.(*playingState)
	if !ok {
		return WordGuessAttempt{}, ErrIsNotPlaying
	}
	now := r.now()
	t := p.activeTeam()
	t.credit(now.Sub(p.roundStartedAt))
	t.flip()
	p.active = nextTeam(p.active, len(p.teams))
	p.roundStartedAt = now
	return r.deal(p), nil
}

// Skip deals another word to the same pair without touching time or turn.
func (r *Room) Skip() (WordGuessAttempt, error) {
	p, ok := r.state.(*playingState)
	if !ok {
		return WordGuessAttempt{}, ErrIsNotPlaying
	}
	return r.deal(p), nil
}

// RecordPrompt pushes pr as the latest prompt. round is the counter read
// when pr was produced; a prompt from an earlier round is refused.
func (r *Room) RecordPrompt(round int, pr Prompt) error {
	p, ok := r.state.(*playingState)
	if !ok {
		return ErrIsNotPlaying
	}
	if round != p.round {
		return ErrStalePrompt
	}
	p.prompts = append(p.prompts, pr)
	return nil
}

// LatestPrompt reports the most recently recorded prompt, if any.
func (r *Room) LatestPrompt() (Prompt, bool, error) {
	p, ok := r.state.(*playingState)
	if !ok {
		return Prompt{}, false, ErrIsNotPlaying
	}
	if len(p.prompts) == 0 {
		return Prompt{}, false, nil
	}
	return p.prompts[len(p.prompts)-1], true, nil
}

// RoundOutcome is what EndRound reports.
type RoundOutcome struct {
	GameFinished  bool
	Standings     []Standing
	Summary       string
	NextDescriber Player // zero when GameFinished
	Round         int    // 1-based number of the round about to start
	TotalRounds   int
}

// EndRound credits whichever team is active, advances the round counter and
// finishes the game once every round has been played.
func (r *Room) EndRound() (RoundOutcome, error) {
	p, ok := r.state.(*playingState)
	if !ok {
		return RoundOutcome{}, ErrIsNotPlaying
	}
	now := r.now()
	p.activeTeam().credit(now.Sub(p.roundStartedAt))
	p.roundStartedAt = now
	p.round++
	p.running = false

	out := RoundOutcome{
		Standings:   standings(p.teams),
		TotalRounds: r.cfg.Rounds,
	}
	out.Summary = formatStandings(out.Standings)

	if p.round == r.cfg.Rounds {
		p.prompts = nil
		r.state = &finishedState{players: p.players, teams: p.teams}
		out.GameFinished = true
		return out, nil
	}
	out.NextDescriber = p.activeTeam().describer()
	out.Round = p.round + 1
	return out, nil
}

// Round is the 0-based round counter; zero outside of play.
func (r *Room) Round() int {
	switch s := r.state.(type) {
	case *playingState:
		return s.round
	case *finishedState:
		return r.cfg.Rounds
	default:
		return 0
	}
}

// Players lists everyone in the room.
func (r *Room) Players() []Player {
	switch s := r.state.(type) {
	case *lobbyState:
		return s.roster()
	case *playingState:
		return slices.Clone(s.players)
	case *finishedState:
		return slices.Clone(s.players)
	default:
		return nil
	}
}

// Standings reports per-team accumulated time once play has started.
func (r *Room) Standings() ([]Standing, error) {
	switch s := r.state.(type) {
	case *playingState:
		return standings(s.teams), nil
	case *finishedState:
		return standings(s.teams), nil
	default:
		return nil, ErrIsNotPlaying
	}
}

// LobbyTeams returns each lobby team's members in join order.
func (r *Room) LobbyTeams() ([][]Player, error) {
	l, ok := r.state.(*lobbyState)
	if !ok {
		return nil, ErrAlreadyPlaying
	}
	out := make([][]Player, len(l.teams))
	for i, members := range l.teams {
		out[i] = []Player{}
		for _, id := range l.order {
			if _, in := members[id]; in {
				out[i] = append(out[i], l.players[id])
			}
		}
	}
	return out, nil
}

func (r *Room) deal(p *playingState) WordGuessAttempt {
	t := p.activeTeam()
	w := r.words.Draw()
	a := WordGuessAttempt{
		Word:      w.Text,
		Describer: t.describer(),
		Guesser:   t.guesser(),
	}
	if r.cfg.TabooWords {
		a.Taboo = r.words.TabooSubset(w)
	}
	return a
}

func (l *lobbyState) roster() []Player {
	out := make([]Player, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.players[id])
	}
	return out
}

func (p *playingState) activeTeam() *team { return p.teams[p.active] }
