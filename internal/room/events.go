package room

import "encoding/json"

// Notifier delivers one event to one connection. Implementations are provided
// by the transport layer and must be non-blocking: delivery is best-effort,
// at-most-once, with no buffering beyond whatever the transport already does.
type Notifier interface {
	Notify(connID string, event any)
}

// Event type names on the wire.
const (
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
	EventMuteUpdate    = "user-mute-update"
	EventScreenSharing = "screen-sharing-update"
	EventRoomClosed    = "room-closed"
	EventSignal        = "signal"
)

// Reasons carried by room-closed events.
const (
	CloseReasonHostLeft = "host left"
	CloseReasonInactive = "inactive"
)

type UserJoined struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type UserLeft struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type MuteUpdate struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Muted  bool   `json:"muted"`
}

type ScreenSharingUpdate struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

type RoomClosed struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// SignalDelivery is addressed to a single target connection, never broadcast.
// The Signal payload passes through unmodified.
type SignalDelivery struct {
	Type     string          `json:"type"`
	From     string          `json:"from"`
	Username string          `json:"username"`
	Signal   json.RawMessage `json:"signal"`
}
