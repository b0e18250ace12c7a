package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "NATS_URL", "NATS_ENABLED", "CATALOG_SOURCE", "CATALOG_FILE", "ROOM_CAPACITY", "DEV_MODE"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 6, cfg.Auction.RoomCapacity)
	assert.Equal(t, 11, cfg.Auction.RosterCap)
	assert.Equal(t, 1000, cfg.Auction.StartingBudget)
	assert.Len(t, cfg.Auction.Categories, 10)
	assert.Equal(t, catalogSourceFile, cfg.Catalog.Source)
	assert.False(t, cfg.NATS.Enabled)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
auction:
  no_bid_ticks: 10
  tick_interval: 500ms
  reoffer_unsold: true
nats:
  enabled: true
  url: nats://nats:4222
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("ROOM_CAPACITY", "4")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "env wins over file")
	assert.Equal(t, 4, cfg.Auction.RoomCapacity)
	assert.Equal(t, 10, cfg.Auction.NoBidTicks)
	assert.Equal(t, 30, cfg.Auction.BidTicks, "unset fields keep defaults")
	assert.Equal(t, 500*time.Millisecond, cfg.Auction.TickInterval)
	assert.True(t, cfg.Auction.ReofferUnsold)
	assert.True(t, cfg.Auction.ResolveOnFullConcession)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "server: ["},
		{"zero capacity", "auction:\n  room_capacity: 0\n"},
		{"unknown catalog source", "catalog:\n  source: s3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			_, err := loadConfig(path)
			assert.Error(t, err)
		})
	}
}
