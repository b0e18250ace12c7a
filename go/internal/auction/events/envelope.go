package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewEnvelope wraps payload for publishing. Every envelope gets a fresh
// event id, which doubles as the JetStream dedupe key.
func NewEnvelope(eventType EventType, roomID string, payload any, at time.Time) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		RoomID:    roomID,
		Timestamp: at.UTC(),
		Payload:   data,
	}, nil
}

// Subject returns the stream subject for an event type under prefix
func Subject(prefix string, eventType EventType) string {
	return fmt.Sprintf("%s.%s", prefix, eventType)
}
