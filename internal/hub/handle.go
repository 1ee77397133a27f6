package hub

import (
	"sync"

	"github.com/thegreathir/jigarpich/internal/engine"
)

// Handle guards one room. Every read or write of the room goes through Do.
type Handle struct {
	ID RoomID

	mu   sync.Mutex
	room *engine.Room
}

// Do runs fn with exclusive access to the room. fn must not block on I/O.
func (h *Handle) Do(fn func(r *engine.Room) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.room)
}
