package publisher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionwheel/go/internal/auction/events"
)

// Publisher delivers one envelope to the event stream
type Publisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}

// AsyncConfig tunes the AsyncSink queue
type AsyncConfig struct {
	QueueSize      int
	PublishTimeout time.Duration
}

func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		QueueSize:      1024,
		PublishTimeout: 5 * time.Second,
	}
}

// AsyncSink accepts room events without blocking and publishes them from a
// single background goroutine. Events that do not fit in the queue are
// dropped with a warning.
type AsyncSink struct {
	pub     Publisher
	clock   clockwork.Clock
	config  AsyncConfig
	queue   chan events.Envelope
	dropped atomic.Int64

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

func NewAsyncSink(pub Publisher, clock clockwork.Clock, config AsyncConfig) *AsyncSink {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultAsyncConfig().QueueSize
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = DefaultAsyncConfig().PublishTimeout
	}
	return &AsyncSink{
		pub:     pub,
		clock:   clock,
		config:  config,
		queue:   make(chan events.Envelope, config.QueueSize),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Emit queues an event. It never blocks.
func (s *AsyncSink) Emit(eventType events.EventType, roomID string, payload any) {
	env, err := events.NewEnvelope(eventType, roomID, payload, s.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to build event envelope")
		return
	}

	select {
	case <-s.stopped:
		s.drop(env, "sink stopped")
		return
	default:
	}

	select {
	case s.queue <- env:
	default:
		s.drop(env, "queue full")
	}
}

// Run publishes queued events until ctx is cancelled or Stop is called, then
// flushes whatever is still queued.
func (s *AsyncSink) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case env := <-s.queue:
			s.publish(env)
		case <-ctx.Done():
			s.flush()
			return
		case <-s.stopped:
			s.flush()
			return
		}
	}
}

// Stop ends Run after flushing and waits for it to return
func (s *AsyncSink) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
	<-s.done
}

// Dropped returns how many events were discarded
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

func (s *AsyncSink) flush() {
	for {
		select {
		case env := <-s.queue:
			s.publish(env)
		default:
			return
		}
	}
}

func (s *AsyncSink) publish(env events.Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.PublishTimeout)
	defer cancel()

	if err := s.pub.Publish(ctx, env); err != nil {
		log.Error().
			Err(err).
			Str("event_id", env.EventID).
			Str("event_type", string(env.EventType)).
			Str("room_id", env.RoomID).
			Msg("failed to publish event")
	}
}

func (s *AsyncSink) drop(env events.Envelope, reason string) {
	s.dropped.Add(1)
	log.Warn().
		Str("event_type", string(env.EventType)).
		Str("room_id", env.RoomID).
		Str("reason", reason).
		Msg("dropping event")
}

// LogPublisher writes envelopes to the log. It stands in for JetStream when
// NATS is disabled.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, env events.Envelope) error {
	log.Info().
		Str("event_id", env.EventID).
		Str("event_type", string(env.EventType)).
		Str("room_id", env.RoomID).
		RawJSON("payload", env.Payload).
		Msg("room event")
	return nil
}
