package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/auctionwheel/go/internal/auction"
	"github.com/mcdev12/auctionwheel/go/internal/auction/gateway"
	"github.com/mcdev12/auctionwheel/go/internal/auction/publisher"
	"github.com/mcdev12/auctionwheel/go/internal/catalog"
	"github.com/mcdev12/auctionwheel/go/internal/dbconfig"
	"github.com/mcdev12/auctionwheel/go/internal/models"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	config, err := loadConfig(getEnv("AUCTION_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items, err := loadCatalog(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalog")
	}

	clock := clockwork.NewRealClock()
	sink, closeSink := setupEventSink(ctx, config, clock)
	defer closeSink()

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	registry := auction.NewRegistry(config.Auction, items, cm,
		auction.WithClock(clock),
		auction.WithEventSink(sink),
	)
	gatewayService := gateway.NewService(cm, registry)

	server := setupServer(config, gatewayService)

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Int("catalog_size", len(items)).
			Bool("nats", config.NATS.Enabled).
			Msg("auction gateway starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	gatewayService.Stop()
	registry.Close()

	log.Info().Msg("auction gateway shutdown complete")
}

func setupServer(config *Config, svc *gateway.Service) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: config.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	svc.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Server.Port),
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}
}

func loadCatalog(ctx context.Context, config *Config) ([]models.Item, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	switch config.Catalog.Source {
	case catalogSourcePostgres:
		pool, err := pgxpool.New(ctx, dbconfig.NewConfigFromEnv().DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
		}
		defer pool.Close()
		return catalog.Prepare(ctx, catalog.NewPostgresSource(pool), rng)
	default:
		return catalog.Prepare(ctx, catalog.FileSource{Path: config.Catalog.File}, rng)
	}
}

// setupEventSink returns the room event sink and a func that flushes it
func setupEventSink(ctx context.Context, config *Config, clock clockwork.Clock) (*publisher.AsyncSink, func()) {
	var pub publisher.Publisher = publisher.LogPublisher{}
	var closePub func() error

	if config.NATS.Enabled {
		jsCfg := publisher.DefaultJetStreamConfig()
		jsCfg.Conn.URL = config.NATS.URL
		js, err := publisher.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			log.Fatal().Err(err).Str("nats_url", config.NATS.URL).Msg("failed to create JetStream publisher")
		}
		pub = js
		closePub = js.Close
	}

	sink := publisher.NewAsyncSink(pub, clock, publisher.DefaultAsyncConfig())
	go sink.Run(ctx)

	return sink, func() {
		sink.Stop()
		if dropped := sink.Dropped(); dropped > 0 {
			log.Warn().Int64("dropped", dropped).Msg("room events dropped")
		}
		if closePub != nil {
			if err := closePub(); err != nil {
				log.Error().Err(err).Msg("failed to close JetStream publisher")
			}
		}
	}
}
