package hub

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"

	"go.uber.org/zap"

	"github.com/thegreathir/jigarpich/internal/engine"
)

var ErrRoomNotFound = errors.New("room not found")
var ErrHubClosed = errors.New("hub closed")

// RoomID is the join code players type to enter a room.
type RoomID uint32

func (id RoomID) String() string { return strconv.FormatUint(uint64(id), 10) }

func ParseRoomID(s string) (RoomID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return RoomID(n), nil
}

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Room  *engine.Room
	Reply chan *Handle
}

type GetRoom struct {
	ID    RoomID
	Reply chan *Handle
}

type RemoveRoom struct {
	ID RoomID
}

type CountRooms struct {
	Reply chan int
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (CountRooms) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub owns the room registry. Only its loop goroutine touches the map, so
// lookups and removals from any number of handlers are safe.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[RoomID]*Handle
	newID  func() (RoomID, error)
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Hub)

// WithIDGenerator replaces the random 5-digit code generator.
func WithIDGenerator(gen func() (RoomID, error)) Option {
	return func(h *Hub) { h.newID = gen }
}

func NewHub(parent context.Context, log *zap.Logger, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[RoomID]*Handle),
		newID:  GenerateID,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.insert(msg.Room)

			case GetRoom:
				msg.Reply <- h.rooms[msg.ID] // May be nil

			case RemoveRoom:
				if _, ok := h.rooms[msg.ID]; ok {
					delete(h.rooms, msg.ID)
					h.log.Info("room removed", zap.Stringer("room", msg.ID))
				}

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

func (h *Hub) insert(room *engine.Room) *Handle {
	for {
		id, err := h.newID()
		if err != nil {
			h.log.Error("failed to generate room id", zap.Error(err))
			return nil
		}
		if _, taken := h.rooms[id]; taken {
			h.log.Debug("collision on room id, regenerating", zap.Stringer("room", id))
			continue
		}
		hd := &Handle{ID: id, room: room}
		h.rooms[id] = hd
		h.log.Info("room created", zap.Stringer("room", id))
		return hd
	}
}

// Create registers room under a fresh id.
func (h *Hub) Create(ctx context.Context, room *engine.Room) (*Handle, error) {
	reply := make(chan *Handle, 1)
	if err := h.send(ctx, CreateRoom{Room: room, Reply: reply}); err != nil {
		return nil, err
	}
	hd, err := h.await(ctx, reply)
	if err != nil {
		return nil, err
	}
	if hd == nil {
		return nil, errors.New("hub: could not allocate room id")
	}
	return hd, nil
}

// Get resolves id, failing with ErrRoomNotFound once the room is gone.
func (h *Hub) Get(ctx context.Context, id RoomID) (*Handle, error) {
	reply := make(chan *Handle, 1)
	if err := h.send(ctx, GetRoom{ID: id, Reply: reply}); err != nil {
		return nil, err
	}
	hd, err := h.await(ctx, reply)
	if err != nil {
		return nil, err
	}
	if hd == nil {
		return nil, ErrRoomNotFound
	}
	return hd, nil
}

func (h *Hub) Remove(ctx context.Context, id RoomID) error {
	return h.send(ctx, RemoveRoom{ID: id})
}

func (h *Hub) Len(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := h.send(ctx, CountRooms{Reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-h.ctx.Done():
		return 0, ErrHubClosed
	}
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

func (h *Hub) await(ctx context.Context, reply <-chan *Handle) (*Handle, error) {
	select {
	case hd := <-reply:
		return hd, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	}
}

// GenerateID returns a random code in [10000, 99999].
func GenerateID() (RoomID, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90_000))
	if err != nil {
		return 0, err
	}
	return RoomID(10_000 + n.Int64()), nil
}
