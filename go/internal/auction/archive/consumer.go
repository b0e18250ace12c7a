package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionwheel/go/internal/auction/events"
	"github.com/mcdev12/auctionwheel/go/internal/auction/publisher"
)

// TurnRecorder persists resolved turns
type TurnRecorder interface {
	RecordTurn(ctx context.Context, eventID uuid.UUID, turn events.TurnResolvedPayload) (bool, error)
}

// ConsumerConfig holds configuration for the JetStream consumer
type ConsumerConfig struct {
	Conn          publisher.ConnConfig
	StreamName    string
	ConsumerName  string
	SubjectFilter string
	MaxDeliver    int           // Max delivery attempts
	AckWait       time.Duration // How long to wait for ack
	MaxAckPending int           // Max messages pending ack
}

// DefaultConsumerConfig returns default JetStream consumer configuration
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Conn:          publisher.DefaultConnConfig("auction-archive"),
		StreamName:    publisher.DefaultStreamName,
		ConsumerName:  "auction-archive",
		SubjectFilter: events.Subject(publisher.DefaultSubjectPrefix, events.EventTypeTurnResolved),
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
	}
}

// Consumer reads TurnResolved events from JetStream and archives them
type Consumer struct {
	recorder TurnRecorder
	nc       *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	config   ConsumerConfig
}

// NewConsumer connects to NATS and binds the durable archive consumer
func NewConsumer(recorder TurnRecorder, config ConsumerConfig) (*Consumer, error) {
	nc, js, err := publisher.Dial(config.Conn)
	if err != nil {
		return nil, err
	}

	c := &Consumer{
		recorder: recorder,
		nc:       nc,
		js:       js,
		config:   config,
	}

	if err := c.ensureConsumer(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}

	return c, nil
}

func (c *Consumer) ensureConsumer(ctx context.Context) error {
	stream, err := c.js.Stream(ctx, c.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          c.config.ConsumerName,
		Durable:       c.config.ConsumerName,
		Description:   "Archives resolved auction turns",
		FilterSubject: c.config.SubjectFilter,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    c.config.MaxDeliver,
		AckWait:       c.config.AckWait,
		MaxAckPending: c.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	log.Info().
		Str("consumer", c.config.ConsumerName).
		Str("stream", c.config.StreamName).
		Msg("bound JetStream consumer")

	c.consumer = consumer
	return nil
}

// Start consumes until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", c.config.ConsumerName).
		Str("stream", c.config.StreamName).
		Msg("starting archive consumer")

	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("archive consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := c.handle(ctx, msg.Subject(), msg.Data()); err != nil {
				log.Error().
					Err(err).
					Str("subject", msg.Subject()).
					Msg("failed to archive message")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

// handle decodes one envelope and records it. Events other than
// TurnResolved are acknowledged and ignored.
func (c *Consumer) handle(ctx context.Context, subject string, data []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}

	if env.EventType != events.EventTypeTurnResolved {
		log.Debug().
			Str("event_type", string(env.EventType)).
			Str("subject", subject).
			Msg("ignoring event")
		return nil
	}

	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		return fmt.Errorf("parse event ID: %w", err)
	}

	var turn events.TurnResolvedPayload
	if err := json.Unmarshal(env.Payload, &turn); err != nil {
		return fmt.Errorf("unmarshal TurnResolved payload: %w", err)
	}

	inserted, err := c.recorder.RecordTurn(ctx, eventID, turn)
	if err != nil {
		return err
	}

	log.Info().
		Str("event_id", env.EventID).
		Str("room_id", env.RoomID).
		Str("session_id", turn.SessionID).
		Str("item", turn.ItemName).
		Str("outcome", string(turn.Outcome)).
		Bool("duplicate", !inserted).
		Msg("turn archived")
	return nil
}

// Stop closes the NATS connection
func (c *Consumer) Stop() error {
	log.Info().Msg("stopping archive consumer")
	if c.nc != nil {
		c.nc.Close()
	}
	return nil
}
