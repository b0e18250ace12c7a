package events

import (
	"encoding/json"
	"time"
)

// Event payload types that are shared between the auction core, the publisher and the archive

// EventType names a room lifecycle event
type EventType string

const (
	EventTypeRoomOpened   EventType = "RoomOpened"
	EventTypeTurnResolved EventType = "TurnResolved"
	EventTypeRoomClosed   EventType = "RoomClosed"
)

// Outcome of a resolved turn
type Outcome string

const (
	OutcomeSold   Outcome = "sold"
	OutcomeUnsold Outcome = "unsold"
)

// Reason records why a turn ended
type Reason string

const (
	ReasonTimer      Reason = "timer"
	ReasonConcession Reason = "concession"
	ReasonHostSkip   Reason = "host_skip"
)

// Envelope is the wire format published to the event stream
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType EventType       `json:"eventType"`
	RoomID    string          `json:"roomId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// RoomOpenedPayload is the payload for a RoomOpened event. SessionID is new
// for every room opened and tells apart rooms that reuse an id.
type RoomOpenedPayload struct {
	RoomID    string    `json:"room_id"`
	SessionID string    `json:"session_id"`
	HostID    string    `json:"host_id"`
	PoolSize  int       `json:"pool_size"`
	OpenedAt  time.Time `json:"opened_at"`
}

// TurnResolvedPayload is the payload for a TurnResolved event
type TurnResolvedPayload struct {
	RoomID     string    `json:"room_id"`
	SessionID  string    `json:"session_id"`
	ItemName   string    `json:"item_name"`
	Category   string    `json:"category"`
	BasePrice  int       `json:"base_price"`
	Outcome    Outcome   `json:"outcome"`
	WinnerID   string    `json:"winner_id,omitempty"`
	WinnerName string    `json:"winner_name,omitempty"`
	Price      int       `json:"price"`
	Reason     Reason    `json:"reason"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// RoomClosedPayload is the payload for a RoomClosed event
type RoomClosedPayload struct {
	RoomID    string    `json:"room_id"`
	SessionID string    `json:"session_id"`
	ClosedAt  time.Time `json:"closed_at"`
}
