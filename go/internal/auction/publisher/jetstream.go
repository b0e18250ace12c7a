package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionwheel/go/internal/auction/events"
)

const (
	DefaultStreamName    = "AUCTION_EVENTS"
	DefaultSubjectPrefix = "auction.events"
)

// JetStreamConfig configures the room event stream
type JetStreamConfig struct {
	Conn          ConnConfig
	StreamName    string
	SubjectPrefix string
	Retention     time.Duration // Age after which events are discarded
	DedupeWindow  time.Duration // Repeated event ids inside the window are dropped by the server
	Replicas      int
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		Conn:          DefaultConnConfig("auction-gateway"),
		StreamName:    DefaultStreamName,
		SubjectPrefix: DefaultSubjectPrefix,
		Retention:     72 * time.Hour,
		DedupeWindow:  2 * time.Minute,
		Replicas:      1,
	}
}

// JetStreamPublisher writes room lifecycle envelopes to a JetStream stream
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

// NewJetStreamPublisher connects and makes sure the stream exists with the
// configured limits
func NewJetStreamPublisher(ctx context.Context, cfg JetStreamConfig) (*JetStreamPublisher, error) {
	nc, js, err := Dial(cfg.Conn)
	if err != nil {
		return nil, err
	}

	stream, err := js.CreateOrUpdateStream(ctx, StreamConfig(cfg))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("declare stream %s: %w", cfg.StreamName, err)
	}

	log.Info().
		Str("stream", stream.CachedInfo().Config.Name).
		Strs("subjects", stream.CachedInfo().Config.Subjects).
		Msg("JetStream stream ready")

	return &JetStreamPublisher{nc: nc, js: js, config: cfg}, nil
}

// StreamConfig builds the stream definition for cfg
func StreamConfig(cfg JetStreamConfig) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Auction room lifecycle events",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		Storage:     jetstream.FileStorage,
		MaxAge:      cfg.Retention,
		MaxMsgs:     -1,
		Duplicates:  cfg.DedupeWindow,
		Replicas:    cfg.Replicas,
	}
}

// Publish implements Publisher. The envelope id doubles as the JetStream
// message id so a retried publish is stored once.
func (p *JetStreamPublisher) Publish(ctx context.Context, env events.Envelope) error {
	msg, err := buildMsg(p.config.SubjectPrefix, env)
	if err != nil {
		return err
	}

	ack, err := p.js.PublishMsg(ctx, msg,
		jetstream.WithMsgID(env.EventID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}

	log.Debug().
		Str("subject", msg.Subject).
		Str("event_id", env.EventID).
		Uint64("seq", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("event published")
	return nil
}

func buildMsg(prefix string, env events.Envelope) (*nats.Msg, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope %s: %w", env.EventID, err)
	}

	msg := nats.NewMsg(events.Subject(prefix, env.EventType))
	msg.Data = data
	msg.Header.Set("Event-Type", string(env.EventType))
	msg.Header.Set("Room-ID", env.RoomID)
	msg.Header.Set("Event-ID", env.EventID)
	return msg, nil
}

// Close drains pending publishes and closes the connection
func (p *JetStreamPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
