package signaling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/huddlekit/signaling/internal/room"
)

type messageType string

const (
	messageTypeCreateRoom    messageType = "create-room"
	messageTypeJoinRoom      messageType = "join-room"
	messageTypeSignal        messageType = "signal"
	messageTypeMuteUpdate    messageType = "mute-update"
	messageTypeScreenSharing messageType = "screen-sharing"
	messageTypeLeaveRoom     messageType = "leave-room"
	messageTypeHeartbeat     messageType = "heartbeat"
)

const (
	ackTypeCreateRoom = "create-room-ack"
	ackTypeJoinRoom   = "join-room-ack"
)

type clientMessage struct {
	Type messageType `json:"type"`

	Username string `json:"username,omitempty"`
	Secret   string `json:"secret,omitempty"`
	RoomID   string `json:"roomId,omitempty"`

	To     string          `json:"to,omitempty"`
	Signal json.RawMessage `json:"signal,omitempty"`

	Muted  *bool `json:"muted,omitempty"`
	Active *bool `json:"active,omitempty"`
}

func parseClientMessage(data []byte) (clientMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var msg clientMessage
	if err := dec.Decode(&msg); err != nil {
		return clientMessage{}, err
	}
	if err := msg.validate(); err != nil {
		return clientMessage{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return clientMessage{}, fmt.Errorf("unexpected trailing data")
	}
	return msg, nil
}

func (m clientMessage) validate() error {
	switch m.Type {
	case messageTypeCreateRoom:
		if m.Username == "" {
			return fmt.Errorf("create-room message missing username")
		}
		if m.RoomID != "" || m.To != "" || m.Signal != nil || m.Muted != nil || m.Active != nil {
			return fmt.Errorf("create-room message has unexpected fields")
		}
	case messageTypeJoinRoom:
		if m.RoomID == "" {
			return fmt.Errorf("join-room message missing roomId")
		}
		if m.Username == "" {
			return fmt.Errorf("join-room message missing username")
		}
		if m.To != "" || m.Signal != nil || m.Muted != nil || m.Active != nil {
			return fmt.Errorf("join-room message has unexpected fields")
		}
	case messageTypeSignal:
		if m.To == "" {
			return fmt.Errorf("signal message missing to")
		}
		if len(m.Signal) == 0 {
			return fmt.Errorf("signal message missing signal")
		}
		if m.Username != "" || m.Secret != "" || m.RoomID != "" || m.Muted != nil || m.Active != nil {
			return fmt.Errorf("signal message has unexpected fields")
		}
	case messageTypeMuteUpdate:
		if m.Muted == nil {
			return fmt.Errorf("mute-update message missing muted")
		}
		if m.Username != "" || m.Secret != "" || m.RoomID != "" || m.To != "" || m.Signal != nil || m.Active != nil {
			return fmt.Errorf("mute-update message has unexpected fields")
		}
	case messageTypeScreenSharing:
		if m.Active == nil {
			return fmt.Errorf("screen-sharing message missing active")
		}
		if m.Username != "" || m.Secret != "" || m.RoomID != "" || m.To != "" || m.Signal != nil || m.Muted != nil {
			return fmt.Errorf("screen-sharing message has unexpected fields")
		}
	case messageTypeLeaveRoom, messageTypeHeartbeat:
		if m.Username != "" || m.Secret != "" || m.RoomID != "" || m.To != "" || m.Signal != nil || m.Muted != nil || m.Active != nil {
			return fmt.Errorf("%s message has unexpected fields", m.Type)
		}
	default:
		return fmt.Errorf("unsupported message type %q", m.Type)
	}
	return nil
}

// createRoomAck and joinRoomAck are the success shapes. Failures for both use
// failureAck so the error message is the only payload.
type createRoomAck struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	RoomID  string `json:"roomId"`
	IsHost  bool   `json:"isHost"`
}

type joinRoomAck struct {
	Type          string             `json:"type"`
	Success       bool               `json:"success"`
	RoomID        string             `json:"roomId"`
	IsHost        bool               `json:"isHost"`
	Participants  []room.RosterEntry `json:"participants"`
	ScreenSharing bool               `json:"screenSharing"`
}

type failureAck struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
