package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	payload := TurnResolvedPayload{
		RoomID:     "ABC123",
		ItemName:   "Rodri",
		Category:   "DM",
		BasePrice:  75,
		Outcome:    OutcomeSold,
		WinnerID:   "p1",
		WinnerName: "Alice",
		Price:      90,
		Reason:     ReasonTimer,
		ResolvedAt: at,
	}

	env, err := NewEnvelope(EventTypeTurnResolved, "ABC123", payload, at)
	require.NoError(t, err)

	_, err = uuid.Parse(env.EventID)
	assert.NoError(t, err)
	assert.Equal(t, EventTypeTurnResolved, env.EventType)
	assert.Equal(t, time.UTC, env.Timestamp.Location())

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "TurnResolved", wire["eventType"])
	assert.Equal(t, "ABC123", wire["roomId"])

	body := wire["payload"].(map[string]any)
	assert.Equal(t, "sold", body["outcome"])
	assert.Equal(t, "timer", body["reason"])
	assert.Equal(t, float64(90), body["price"])

	other, err := NewEnvelope(EventTypeTurnResolved, "ABC123", payload, at)
	require.NoError(t, err)
	assert.NotEqual(t, env.EventID, other.EventID)
}

func TestNewEnvelope_UnmarshalablePayload(t *testing.T) {
	_, err := NewEnvelope(EventTypeRoomOpened, "R", make(chan int), time.Now())
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "auction.events.RoomClosed", Subject("auction.events", EventTypeRoomClosed))
}
