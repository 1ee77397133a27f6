// Package game coordinates rooms with the outside world: it resolves a room,
// applies one engine operation under the room's lock, releases it and only
// then talks to players. Round timing runs on background timers that look the
// room up again when they fire.
package game

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/thegreathir/jigarpich/internal/engine"
	"github.com/thegreathir/jigarpich/internal/hub"
)

const (
	DefaultSkipCooldown = 10 * time.Second
	backgroundTimeout   = 30 * time.Second
)

var errStale = errors.New("stale timer")

type Button struct {
	Label string
	Data  string
}

type Keyboard [][]Button

// Messenger delivers messages to players.
type Messenger interface {
	Send(ctx context.Context, to engine.PlayerID, text string, kb Keyboard) (engine.Prompt, error)
	EditKeyboard(ctx context.Context, p engine.Prompt, kb Keyboard) error
}

// Recorder stores the standings of finished games.
type Recorder interface {
	RecordGame(ctx context.Context, roomID string, rounds int, standings []engine.Standing) error
}

type Timer interface{ Stop() bool }

type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Alert is a countdown broadcast sent Before the end of a round.
type Alert struct {
	Before time.Duration
	Text   string
}

var DefaultAlerts = []Alert{
	{Before: 60 * time.Second, Text: "⏱️📢 1 min ❗"},
	{Before: 30 * time.Second, Text: "⏱️📢 30 secs ❗"},
	{Before: 10 * time.Second, Text: "⏱️📢 10 secs ❗"},
}

type Orchestrator struct {
	hub          *hub.Hub
	msg          Messenger
	words        engine.WordSource
	sched        Scheduler
	rec          Recorder
	log          *zap.Logger
	alerts       []Alert
	skipCooldown time.Duration
	engineOpts   []engine.Option
}

type Option func(*Orchestrator)

func WithScheduler(s Scheduler) Option { return func(o *Orchestrator) { o.sched = s } }
func WithRecorder(r Recorder) Option   { return func(o *Orchestrator) { o.rec = r } }
func WithAlerts(a []Alert) Option      { return func(o *Orchestrator) { o.alerts = a } }

func WithSkipCooldown(d time.Duration) Option {
	return func(o *Orchestrator) { o.skipCooldown = d }
}

// WithEngineOptions is applied to every room the orchestrator creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *Orchestrator) { o.engineOpts = append(o.engineOpts, opts...) }
}

func New(h *hub.Hub, m Messenger, src engine.WordSource, log *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		hub:          h,
		msg:          m,
		words:        src,
		sched:        clockScheduler{},
		log:          log,
		alerts:       DefaultAlerts,
		skipCooldown: DefaultSkipCooldown,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CreateRoom registers a new lobby and returns its join code.
func (o *Orchestrator) CreateRoom(ctx context.Context, cfg engine.Config) (hub.RoomID, error) {
	room, err := engine.New(cfg, o.words, o.engineOpts...)
	if err != nil {
		return 0, err
	}
	hd, err := o.hub.Create(ctx, room)
	if err != nil {
		return 0, err
	}
	o.log.Info("room ready",
		zap.Stringer("room", hd.ID),
		zap.Int("teams", cfg.Teams),
		zap.Int("rounds", cfg.Rounds),
		zap.Duration("round_duration", cfg.RoundDuration),
		zap.Bool("taboo", cfg.TabooWords),
	)
	return hd.ID, nil
}

// Status renders the room roster.
func (o *Orchestrator) Status(ctx context.Context, id hub.RoomID) (string, error) {
	hd, err := o.hub.Get(ctx, id)
	if err != nil {
		return "", err
	}
	var status string
	_ = hd.Do(func(r *engine.Room) error {
		status = r.Status()
		return nil
	})
	return status, nil
}

// send delivers one message; failures are logged, not returned.
func (o *Orchestrator) send(ctx context.Context, to engine.PlayerID, text string, kb Keyboard) (engine.Prompt, bool) {
	p, err := o.msg.Send(ctx, to, text, kb)
	if err != nil {
		o.log.Warn("can not send message", zap.String("player", string(to)), zap.Error(err))
		return engine.Prompt{}, false
	}
	return p, true
}

func (o *Orchestrator) broadcast(ctx context.Context, to []engine.Player, text string) {
	for _, p := range to {
		o.send(ctx, p.ID, text, nil)
	}
}

func (o *Orchestrator) clearKeyboard(ctx context.Context, p engine.Prompt) {
	if err := o.msg.EditKeyboard(ctx, p, Keyboard{}); err != nil {
		o.log.Warn("can not clear buttons", zap.String("chat", p.ChatID), zap.Int64("message", p.MessageID), zap.Error(err))
	}
}

// record makes p the room's latest prompt if the room is still on round.
func (o *Orchestrator) record(hd *hub.Handle, round int, p engine.Prompt) bool {
	err := hd.Do(func(r *engine.Room) error { return r.RecordPrompt(round, p) })
	switch {
	case errors.Is(err, engine.ErrStalePrompt), errors.Is(err, engine.ErrIsNotPlaying):
		o.log.Debug("prompt outlived its round", zap.Stringer("room", hd.ID), zap.Int("round", round))
		return false
	case err != nil:
		o.log.Warn("error while pushing to message stack", zap.Stringer("room", hd.ID), zap.Error(err))
		return false
	}
	return true
}

func except(players []engine.Player, ids ...engine.PlayerID) []engine.Player {
	out := make([]engine.Player, 0, len(players))
outer:
	for _, p := range players {
		for _, id := range ids {
			if p.ID == id {
				continue outer
			}
		}
		out = append(out, p)
	}
	return out
}
