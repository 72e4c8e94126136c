package room

import "errors"

// Error strings double as the client-facing `error` field in negative acks,
// so they are phrased for end users rather than operators.
var (
	ErrRoomNotFound    = errors.New("Room not found")
	ErrIncorrectSecret = errors.New("Incorrect password")
	ErrTooManyRooms    = errors.New("Too many rooms")
)
