package signaling

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Registry maps connection ids to live WebSocket clients. It is the
// delivery side of presence and relay events: the room store addresses
// notifications by connection id and the registry resolves them to sockets.
//
// Delivery is best-effort. A client whose send queue is full simply misses
// the event; nothing blocks the caller, which may hold the room store lock.
type Registry struct {
	log *slog.Logger

	mu    sync.Mutex
	conns map[string]*client
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:   log,
		conns: make(map[string]*client),
	}
}

func (r *Registry) add(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.id] = c
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

func (r *Registry) get(id string) *client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[id]
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Notify delivers one event to one connection. Unknown connection ids are
// ignored: the target may have disconnected between addressing and delivery.
func (r *Registry) Notify(connID string, event any) {
	c := r.get(connID)
	if c == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.log.Error("failed to encode event", "conn_id", connID, "err", err)
		return
	}

	if !c.trySend(payload) {
		r.log.Debug("dropped event for slow connection", "conn_id", connID)
	}
}
