package room

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/huddlekit/signaling/internal/metrics"
	"github.com/huddlekit/signaling/internal/ratelimit"
)

// Participant is one member of a room.
type Participant struct {
	Username string
	IsHost   bool
}

// state is the per-room record. It is only ever touched while holding
// Store.mu; the order slice preserves join order for roster display.
type state struct {
	id         string
	hostConnID string
	secret     string

	participants map[string]Participant
	order        []string

	lastActivity  time.Time
	screenSharing bool
}

// RosterEntry is one row of the participant roster returned to a joiner.
type RosterEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsHost   bool   `json:"isHost"`
}

// RoomStatus is the diagnostic snapshot of one live room.
type RoomStatus struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
	Protected    bool   `json:"protected"`
	Host         string `json:"host"`
}

type CreateResult struct {
	RoomID string
}

type JoinResult struct {
	RoomID        string
	IsHost        bool
	Roster        []RosterEntry
	ScreenSharing bool
}

type StoreConfig struct {
	// MaxRooms caps concurrently live rooms. <= 0 means unlimited.
	MaxRooms int

	Clock    ratelimit.Clock
	Metrics  *metrics.Metrics
	Notifier Notifier
	Logger   *slog.Logger
}

// Store owns every live room and the connection-to-room registry.
//
// All reads and writes go through a single mutex: per-connection event
// handlers and the idle sweeper serialize here, which is what makes the
// "refresh wins over concurrent sweep" rule hold. Notifications are emitted
// while the lock is held so that the order of emitted events matches the
// order the triggering operations were applied; Notifier implementations
// must therefore never block.
type Store struct {
	maxRooms int

	clock    ratelimit.Clock
	metrics  *metrics.Metrics
	notifier Notifier
	log      *slog.Logger

	mu    sync.Mutex
	rooms map[string]*state
	conns map[string]string // connection id -> room id
}

func NewStore(cfg StoreConfig) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = ratelimit.RealClock{}
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		maxRooms: cfg.MaxRooms,
		clock:    clock,
		metrics:  m,
		notifier: cfg.Notifier,
		log:      log,
		rooms:    make(map[string]*state),
		conns:    make(map[string]string),
	}
}

func (s *Store) Metrics() *metrics.Metrics { return s.metrics }

// Create makes a new room with the caller as its sole participant and host.
func (s *Store) Create(connID, username, secret string) (CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A connection may only belong to one room; creating a new room while in
	// another is treated as leaving the old one first.
	s.leaveLocked(connID)

	if s.maxRooms > 0 && len(s.rooms) >= s.maxRooms {
		return CreateResult{}, ErrTooManyRooms
	}

	id, err := s.newRoomIDLocked()
	if err != nil {
		return CreateResult{}, err
	}

	now := s.clock.Now()
	s.rooms[id] = &state{
		id:           id,
		hostConnID:   connID,
		secret:       secret,
		participants: map[string]Participant{connID: {Username: username, IsHost: true}},
		order:        []string{connID},
		lastActivity: now,
	}
	s.conns[connID] = id
	s.metrics.Inc(metrics.RoomsCreated)
	s.log.Debug("room created", "room", id, "host", connID)

	return CreateResult{RoomID: id}, nil
}

// Join adds the caller to an existing room as a non-host participant and
// returns the full roster plus the room's current screen-sharing state. The
// other members receive a user-joined event.
func (s *Store) Join(connID, roomID, username, secret string) (JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		s.metrics.Inc(metrics.JoinRejectedNotFound)
		return JoinResult{}, ErrRoomNotFound
	}
	if r.secret != "" && r.secret != secret {
		s.metrics.Inc(metrics.JoinRejectedBadSecret)
		return JoinResult{}, ErrIncorrectSecret
	}

	// Same one-room-per-connection rule as Create. Leaving may delete the very
	// room being joined (the caller could have been its host), so look it up
	// again afterwards.
	if cur, ok := s.conns[connID]; ok && cur != roomID {
		s.leaveLocked(connID)
	} else if ok && cur == roomID {
		// Already a member; treat as a re-join and rebuild roster below.
		s.removeParticipantLocked(r, connID)
		delete(s.conns, connID)
	}
	r, ok = s.rooms[roomID]
	if !ok {
		s.metrics.Inc(metrics.JoinRejectedNotFound)
		return JoinResult{}, ErrRoomNotFound
	}

	// A host re-joining its own room must keep its host flag; hostConnID is
	// the authoritative record.
	isHost := connID == r.hostConnID
	r.participants[connID] = Participant{Username: username, IsHost: isHost}
	r.order = append(r.order, connID)
	r.lastActivity = s.clock.Now()
	s.conns[connID] = roomID

	s.broadcastLocked(r, connID, UserJoined{
		Type:     EventUserJoined,
		UserID:   connID,
		Username: username,
	})

	roster := make([]RosterEntry, 0, len(r.order))
	for _, id := range r.order {
		p := r.participants[id]
		roster = append(roster, RosterEntry{ID: id, Username: p.Username, IsHost: p.IsHost})
	}

	s.log.Debug("participant joined", "room", roomID, "conn", connID)
	return JoinResult{RoomID: roomID, IsHost: isHost, Roster: roster, ScreenSharing: r.screenSharing}, nil
}

// Leave removes the connection from its room, if any. It handles explicit
// leave-room events and transport disconnects identically.
func (s *Store) Leave(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveLocked(connID)
}

// Heartbeat refreshes the room's activity timestamp. No other state changes,
// no broadcast.
func (s *Store) Heartbeat(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.conns[connID]
	if !ok {
		return
	}
	if r, ok := s.rooms[roomID]; ok {
		r.lastActivity = s.clock.Now()
	}
}

// Signal forwards an opaque payload to one target connection. The sender must
// be a registered participant of a live room; the target's membership is not
// checked (addressing is purely by connection id). Invalid sends are dropped
// silently.
func (s *Store) Signal(fromConnID, toConnID string, payload json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.memberRoomLocked(fromConnID)
	if r == nil {
		s.metrics.Inc(metrics.SignalsDroppedNoRoom)
		return
	}
	p, ok := r.participants[fromConnID]
	if !ok {
		s.metrics.Inc(metrics.SignalsDroppedNoRoom)
		return
	}

	r.lastActivity = s.clock.Now()
	s.notify(toConnID, SignalDelivery{
		Type:     EventSignal,
		From:     fromConnID,
		Username: p.Username,
		Signal:   payload,
	})
	s.metrics.Inc(metrics.SignalsRelayed)
}

// SetMuted broadcasts the connection's mute state to the rest of its room.
// Room membership is the only precondition.
func (s *Store) SetMuted(connID string, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.memberRoomLocked(connID)
	if r == nil {
		return
	}

	r.lastActivity = s.clock.Now()
	s.broadcastLocked(r, connID, MuteUpdate{
		Type:   EventMuteUpdate,
		UserID: connID,
		Muted:  muted,
	})
}

// SetScreenSharing records the room's screen-sharing state and broadcasts the
// change. Unlike mute, the sender must be a registered participant (the event
// carries their username).
func (s *Store) SetScreenSharing(connID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.memberRoomLocked(connID)
	if r == nil {
		return
	}
	p, ok := r.participants[connID]
	if !ok {
		return
	}

	r.screenSharing = active
	r.lastActivity = s.clock.Now()
	s.broadcastLocked(r, connID, ScreenSharingUpdate{
		Type:     EventScreenSharing,
		UserID:   connID,
		Username: p.Username,
		Active:   active,
	})
}

// ReapIdle force-closes every room whose last activity is older than
// threshold at the time of the call, and returns how many rooms it closed.
// Eligibility and deletion happen under one lock hold, so an activity refresh
// that commits before the sweep acquires the lock always wins.
func (s *Store) ReapIdle(threshold time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-threshold)
	closed := 0
	for id, r := range s.rooms {
		if r.lastActivity.After(cutoff) {
			continue
		}
		for _, connID := range r.order {
			s.notify(connID, RoomClosed{Type: EventRoomClosed, Reason: CloseReasonInactive})
			delete(s.conns, connID)
		}
		delete(s.rooms, id)
		s.metrics.Inc(metrics.RoomsClosedIdle)
		s.log.Info("room closed", "room", id, "reason", CloseReasonInactive)
		closed++
	}
	return closed
}

// Snapshot returns the diagnostic view of all live rooms, sorted by id.
func (s *Store) Snapshot() []RoomStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RoomStatus, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, RoomStatus{
			ID:           r.id,
			Participants: len(r.participants),
			Protected:    r.secret != "",
			Host:         r.hostConnID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) leaveLocked(connID string) {
	roomID, ok := s.conns[connID]
	if !ok {
		return
	}
	delete(s.conns, connID)

	r, ok := s.rooms[roomID]
	if !ok {
		return
	}

	p := r.participants[connID]
	s.removeParticipantLocked(r, connID)

	switch {
	case len(r.participants) == 0:
		// Nobody left to notify.
		delete(s.rooms, roomID)
		s.metrics.Inc(metrics.RoomsClosedEmpty)
		s.log.Debug("room closed", "room", roomID, "reason", "empty")

	case connID == r.hostConnID:
		// Host departure terminates the room regardless of who remains.
		for _, id := range r.order {
			s.notify(id, RoomClosed{Type: EventRoomClosed, Reason: CloseReasonHostLeft})
			delete(s.conns, id)
		}
		delete(s.rooms, roomID)
		s.metrics.Inc(metrics.RoomsClosedHostLeft)
		s.log.Info("room closed", "room", roomID, "reason", CloseReasonHostLeft)

	default:
		r.lastActivity = s.clock.Now()
		s.broadcastLocked(r, connID, UserLeft{
			Type:     EventUserLeft,
			UserID:   connID,
			Username: p.Username,
		})
	}
}

func (s *Store) removeParticipantLocked(r *state, connID string) {
	delete(r.participants, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// memberRoomLocked resolves the live room a connection currently belongs to,
// or nil.
func (s *Store) memberRoomLocked(connID string) *state {
	roomID, ok := s.conns[connID]
	if !ok {
		return nil
	}
	return s.rooms[roomID]
}

func (s *Store) broadcastLocked(r *state, exceptConnID string, event any) {
	for _, id := range r.order {
		if id == exceptConnID {
			continue
		}
		s.notify(id, event)
	}
}

func (s *Store) notify(connID string, event any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(connID, event)
}

// roomIDBytes sets the room id length (2 hex chars per byte). Ids are lookup
// keys, not credentials; the optional room secret is the access control. Four
// bytes of crypto-random entropy keeps ids short but non-guessable within a
// room's lifetime.
const roomIDBytes = 4

func (s *Store) newRoomIDLocked() (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var buf [roomIDBytes]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("generate room id: %w", err)
		}
		id := hex.EncodeToString(buf[:])
		if _, ok := s.rooms[id]; !ok {
			return id, nil
		}
	}
	return "", errors.New("failed to allocate unique room id")
}
