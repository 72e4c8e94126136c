package metrics

import "sync"

// Counter names used across the signaling server.
const (
	RoomsCreated        = "rooms_created"
	RoomsClosedEmpty    = "rooms_closed_empty"
	RoomsClosedHostLeft = "rooms_closed_host_left"
	RoomsClosedIdle     = "rooms_closed_idle"

	JoinRejectedNotFound  = "join_rejected_not_found"
	JoinRejectedBadSecret = "join_rejected_bad_secret"

	SignalsRelayed       = "signals_relayed"
	SignalsDroppedNoRoom = "signals_dropped_no_room"

	MessagesRateLimited = "messages_rate_limited"
	OriginRejected      = "origin_rejected"
)

// Metrics is a minimal, concurrency-safe counter registry.
//
// It keeps room lifecycle accounting testable without pulling a full metrics
// backend into the core; the /metrics endpoint exposes it for scraping.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	m.mu.Lock()
	if m.m == nil {
		m.m = make(map[string]uint64)
	}
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Add(name string, delta uint64) {
	m.mu.Lock()
	if m.m == nil {
		m.m = make(map[string]uint64)
	}
	m.m[name] += delta
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters at the moment of the call.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
