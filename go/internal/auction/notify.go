package auction

import "github.com/mcdev12/auctionwheel/go/internal/auction/events"

// MessageType identifies an outbound message
type MessageType string

const (
	MessageRoomCreated  MessageType = "roomCreated"
	MessageRoomJoined   MessageType = "roomJoined"
	MessageRoomState    MessageType = "roomState"
	MessageTurnRevealed MessageType = "turnRevealed"
	MessageError        MessageType = "error"
)

// OutboundMessage is what a Notifier delivers to participants
type OutboundMessage struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"roomId,omitempty"`
	Data   any         `json:"data,omitempty"`
}

// TurnReveal tells presentation which wheel slice to animate to. It is
// advisory only; the authoritative item arrives in the next roomState.
type TurnReveal struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
}

// Notifier delivers messages to participants. Implementations must not
// block: they are called from room actors.
type Notifier interface {
	Send(participantID string, msg OutboundMessage)
	Broadcast(participantIDs []string, msg OutboundMessage)
}

// EventSink receives room lifecycle events. Implementations must not block.
type EventSink interface {
	Emit(eventType events.EventType, roomID string, payload any)
}

type nopSink struct{}

func (nopSink) Emit(events.EventType, string, any) {}
