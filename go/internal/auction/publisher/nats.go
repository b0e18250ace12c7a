package publisher

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// ConnConfig describes one NATS client connection
type ConnConfig struct {
	URL           string
	Name          string // Client name shown in NATS monitoring
	MaxReconnects int    // -1 retries forever
	ReconnectWait time.Duration
}

func DefaultConnConfig(name string) ConnConfig {
	return ConnConfig{
		URL:           nats.DefaultURL,
		Name:          name,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Dial connects to NATS and opens a JetStream context on the connection.
// Connection state changes are logged.
func Dial(cfg ConnConfig) (*nats.Conn, jetstream.JetStream, error) {
	logger := log.With().Str("nats_client", cfg.Name).Logger()

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error().Err(err).Msg("NATS async error")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("open JetStream: %w", err)
	}
	return nc, js, nil
}
