package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/thegreathir/jigarpich/internal/engine"
	"github.com/thegreathir/jigarpich/internal/game"
	"github.com/thegreathir/jigarpich/internal/types"
)

var ErrNotConnected = errors.New("player not connected")
var ErrSlowClient = errors.New("client outbox full")

const (
	outboxSize   = 32
	writeTimeout = 3 * time.Second
)

// Inbound receives what players type and press.
type Inbound interface {
	HandleText(ctx context.Context, p engine.Player, text string) error
	HandleCallback(ctx context.Context, p engine.Player, data string) error
}

type client struct {
	player engine.Player
	out    chan types.ServerMessage
}

// Gateway keeps one websocket per player and delivers game messages to it.
type Gateway struct {
	mu      sync.RWMutex
	clients map[engine.PlayerID]*client

	nextMsg atomic.Int64
	inbound Inbound
	log     *zap.Logger
	limit   rate.Limit
	burst   int
	origins []string
}

type Option func(*Gateway)

// WithRateLimit bounds inbound frames per connection.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(g *Gateway) {
		g.limit = limit
		g.burst = burst
	}
}

func WithOriginPatterns(patterns ...string) Option {
	return func(g *Gateway) { g.origins = patterns }
}

func NewGateway(log *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		clients: make(map[engine.PlayerID]*client),
		log:     log,
		limit:   rate.Limit(5),
		burst:   10,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetInbound must be called before the handler serves connections.
func (g *Gateway) SetInbound(in Inbound) { g.inbound = in }

func (g *Gateway) Send(_ context.Context, to engine.PlayerID, text string, kb game.Keyboard) (engine.Prompt, error) {
	id := g.nextMsg.Add(1)
	msg := types.ServerMessage{Type: "Message", ChatID: string(to), MessageID: id, Text: text, Keyboard: toWire(kb)}
	if err := g.push(to, msg); err != nil {
		return engine.Prompt{}, err
	}
	return engine.Prompt{ChatID: string(to), MessageID: id}, nil
}

func (g *Gateway) EditKeyboard(_ context.Context, p engine.Prompt, kb game.Keyboard) error {
	msg := types.ServerMessage{Type: "Edit", ChatID: p.ChatID, MessageID: p.MessageID, Keyboard: toWire(kb)}
	return g.push(engine.PlayerID(p.ChatID), msg)
}

func (g *Gateway) Connected() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

func (g *Gateway) push(to engine.PlayerID, msg types.ServerMessage) error {
	g.mu.RLock()
	c, ok := g.clients[to]
	g.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	return c.push(msg)
}

func (c *client) push(msg types.ServerMessage) error {
	select {
	case c.out <- msg:
		return nil
	default:
		return ErrSlowClient
	}
}

func (g *Gateway) attach(c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[c.player.ID] = c
}

// detach forgets c unless a newer connection for the same player replaced it.
func (g *Gateway) detach(c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clients[c.player.ID] == c {
		delete(g.clients, c.player.ID)
	}
}

// Handler upgrades GET /ws?name=<display name>[&player=<id>]. A returning
// player passes the id from its Hello message to keep its seat.
func (g *Gateway) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}
		id := r.URL.Query().Get("player")
		if id == "" {
			id = uuid.NewString()
		} else if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "bad player id", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: g.origins})
		if err != nil {
			g.log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		p := engine.Player{ID: engine.PlayerID(id), Name: name}
		c := &client{player: p, out: make(chan types.ServerMessage, outboxSize)}
		g.attach(c)
		defer g.detach(c)
		g.log.Info("player connected", zap.String("player", id), zap.String("name", name))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go g.writeLoop(ctx, conn, c)

		_ = c.push(types.ServerMessage{Type: "Hello", PlayerID: id})

		limiter := rate.NewLimiter(g.limit, g.burst)
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					g.log.Info("player disconnected", zap.String("player", id))
				default:
					g.log.Debug("read failed", zap.String("player", id), zap.Error(err))
				}
				return
			}

			if !limiter.Allow() {
				_ = c.push(types.ServerMessage{Type: "Error", Error: "slow down"})
				continue
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = c.push(types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			if err := g.dispatch(ctx, p, cm); err != nil {
				g.log.Debug("inbound message rejected", zap.String("player", id), zap.Error(err))
				_ = c.push(types.ServerMessage{Type: "Error", Error: err.Error()})
			}
		}
	}
}

var errUnknownType = errors.New("unknown type")

func (g *Gateway) dispatch(ctx context.Context, p engine.Player, m types.ClientMessage) error {
	switch m.Type {
	case "Text":
		return g.inbound.HandleText(ctx, p, m.Text)
	case "Callback":
		return g.inbound.HandleCallback(ctx, p, m.Data)
	default:
		return errUnknownType
	}
}

func (g *Gateway) writeLoop(ctx context.Context, conn *websocket.Conn, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			payload, err := json.Marshal(msg)
			if err != nil {
				g.log.Error("can not encode message", zap.Error(err))
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				g.log.Debug("write failed", zap.String("player", string(c.player.ID)), zap.Error(err))
				return
			}
		}
	}
}

func toWire(kb game.Keyboard) [][]types.Button {
	if len(kb) == 0 {
		return nil
	}
	out := make([][]types.Button, len(kb))
	for i, row := range kb {
		out[i] = make([]types.Button, len(row))
		for j, b := range row {
			out[i][j] = types.Button{Label: b.Label, Data: b.Data}
		}
	}
	return out
}
