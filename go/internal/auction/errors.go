package auction

import "errors"

// Errors reported to the participant that triggered them. They are never
// broadcast room-wide and never change room state.
var (
	ErrRoomNotFound       = errors.New("Room not found")
	ErrRoomFull           = errors.New("Room is full")
	ErrNotHost            = errors.New("Only the host can do that")
	ErrInsufficientBudget = errors.New("Insufficient balance")
	ErrNoActiveAuction    = errors.New("No active auction")
	ErrRoomIDExhausted    = errors.New("could not generate a unique room id")
)
