package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/auctionwheel/go/internal/auction"
)

const (
	catalogSourceFile     = "file"
	catalogSourcePostgres = "postgres"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Auction auction.Config `yaml:"auction"`

	Catalog struct {
		Source string `yaml:"source"`
		File   string `yaml:"file"`
	} `yaml:"catalog"`

	NATS struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	cfg := &Config{Auction: auction.DefaultConfig()}
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Catalog.Source = catalogSourceFile
	cfg.Catalog.File = "go/internal/assets/players.json"
	cfg.NATS.URL = "nats://localhost:4222"
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", path).Msg("config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(config)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnvOverrides(config *Config) {
	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.NATS.Enabled = getEnvAsBool("NATS_ENABLED", config.NATS.Enabled)
	config.Catalog.Source = getEnv("CATALOG_SOURCE", config.Catalog.Source)
	config.Catalog.File = getEnv("CATALOG_FILE", config.Catalog.File)
	config.Auction.RoomCapacity = getEnvAsInt("ROOM_CAPACITY", config.Auction.RoomCapacity)
	config.Auction.DevMode = getEnvAsBool("DEV_MODE", config.Auction.DevMode)
}

func (c *Config) validate() error {
	if err := c.Auction.Validate(); err != nil {
		return fmt.Errorf("invalid auction config: %w", err)
	}
	switch c.Catalog.Source {
	case catalogSourceFile:
		if c.Catalog.File == "" {
			return errors.New("catalog.file is required when catalog.source is file")
		}
	case catalogSourcePostgres:
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	return nil
}
