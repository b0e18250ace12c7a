package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionwheel/go/internal/auction"
	"github.com/mcdev12/auctionwheel/go/internal/auction/events"
)

var _ auction.EventSink = (*AsyncSink)(nil)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, env events.Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

// blockingPublisher records envelopes and can be held to fill the queue
type blockingPublisher struct {
	mu      sync.Mutex
	got     []events.Envelope
	release chan struct{}
}

func (p *blockingPublisher) Publish(_ context.Context, env events.Envelope) error {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, env)
	return nil
}

func (p *blockingPublisher) received() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Envelope(nil), p.got...)
}

func TestAsyncSink_PublishesEnvelopes(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	pub := &blockingPublisher{}
	sink := NewAsyncSink(pub, clock, DefaultAsyncConfig())
	go sink.Run(context.Background())

	sink.Emit(events.EventTypeRoomClosed, "ROOM01", events.RoomClosedPayload{RoomID: "ROOM01", ClosedAt: clock.Now()})
	sink.Stop()

	got := pub.received()
	require.Len(t, got, 1)
	assert.Equal(t, events.EventTypeRoomClosed, got[0].EventType)
	assert.Equal(t, "ROOM01", got[0].RoomID)
	assert.Equal(t, clock.Now(), got[0].Timestamp)

	var payload events.RoomClosedPayload
	require.NoError(t, json.Unmarshal(got[0].Payload, &payload))
	assert.Equal(t, "ROOM01", payload.RoomID)
}

func TestAsyncSink_DropsWhenFull(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{})}
	sink := NewAsyncSink(pub, clockwork.NewRealClock(), AsyncConfig{QueueSize: 2, PublishTimeout: time.Second})

	// Not running yet: the queue holds two, the rest are dropped.
	for i := 0; i < 5; i++ {
		sink.Emit(events.EventTypeRoomOpened, "R", events.RoomOpenedPayload{RoomID: "R"})
	}
	assert.Equal(t, int64(3), sink.Dropped())

	go sink.Run(context.Background())
	close(pub.release)
	sink.Stop()

	assert.Len(t, pub.received(), 2)

	sink.Emit(events.EventTypeRoomOpened, "R", events.RoomOpenedPayload{RoomID: "R"})
	assert.Equal(t, int64(4), sink.Dropped(), "emits after stop are dropped")
}

func TestAsyncSink_PublishErrorDoesNotStopSink(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(env events.Envelope) bool {
		return env.RoomID == "bad"
	})).Return(errors.New("nats down")).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(env events.Envelope) bool {
		return env.RoomID == "good"
	})).Return(nil).Once()

	sink := NewAsyncSink(pub, clockwork.NewRealClock(), DefaultAsyncConfig())
	sink.Emit(events.EventTypeRoomOpened, "bad", events.RoomOpenedPayload{})
	sink.Emit(events.EventTypeRoomOpened, "good", events.RoomOpenedPayload{})

	go sink.Run(context.Background())
	sink.Stop()

	pub.AssertExpectations(t)
}

func TestBuildMsg(t *testing.T) {
	env, err := events.NewEnvelope(events.EventTypeTurnResolved, "ROOM01", events.TurnResolvedPayload{ItemName: "Rodri"}, time.Now())
	require.NoError(t, err)

	msg, err := buildMsg("auction.events", env)
	require.NoError(t, err)

	assert.Equal(t, "auction.events.TurnResolved", msg.Subject)
	assert.Equal(t, env.EventID, msg.Header.Get("Event-ID"))
	assert.Equal(t, "ROOM01", msg.Header.Get("Room-ID"))

	var decoded events.Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)
	assert.JSONEq(t, string(env.Payload), string(decoded.Payload))
}

func TestStreamConfig(t *testing.T) {
	sc := StreamConfig(DefaultJetStreamConfig())
	assert.Equal(t, "AUCTION_EVENTS", sc.Name)
	assert.Equal(t, []string{"auction.events.>"}, sc.Subjects)
	assert.Equal(t, 72*time.Hour, sc.MaxAge)
	assert.Equal(t, 2*time.Minute, sc.Duplicates)
}
