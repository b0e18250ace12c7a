package auction

import (
	"errors"
	"fmt"
	"time"
)

// DefaultCategories are the wheel slices, in wheel order
var DefaultCategories = []string{"GK", "CB", "RB", "LB", "RW", "CF", "AM", "LW", "CM", "DM"}

// Config holds the per-room constants. Every room created by a Registry
// receives the registry's Config.
type Config struct {
	RoomCapacity   int           `yaml:"room_capacity"`
	RosterCap      int           `yaml:"roster_cap"`
	StartingBudget int           `yaml:"starting_budget"`
	NoBidTicks     int           `yaml:"no_bid_ticks"`
	BidTicks       int           `yaml:"bid_ticks"`
	TickInterval   time.Duration `yaml:"tick_interval"`
	RevealDelay    time.Duration `yaml:"reveal_delay"`
	Categories     []string      `yaml:"categories"`

	// ResolveOnFullConcession ends a turn as soon as every participant has skipped.
	ResolveOnFullConcession bool `yaml:"resolve_on_full_concession"`
	// ReofferUnsold puts unsold items back at the tail of the pool.
	ReofferUnsold bool `yaml:"reoffer_unsold"`

	// DevMode turns invariant violations into panics
	DevMode bool `yaml:"dev_mode"`

	// InboxSize bounds each room actor's queue
	InboxSize int `yaml:"inbox_size"`
}

// DefaultConfig returns the standard game constants
func DefaultConfig() Config {
	categories := make([]string, len(DefaultCategories))
	copy(categories, DefaultCategories)
	return Config{
		RoomCapacity:            6,
		RosterCap:               11,
		StartingBudget:          1000,
		NoBidTicks:              60,
		BidTicks:                30,
		TickInterval:            time.Second,
		RevealDelay:             2500 * time.Millisecond,
		Categories:              categories,
		ResolveOnFullConcession: true,
		ReofferUnsold:           false,
		InboxSize:               256,
	}
}

// Validate reports the first setting that cannot run a room
func (c Config) Validate() error {
	switch {
	case c.RoomCapacity < 1:
		return fmt.Errorf("room_capacity must be positive, got %d", c.RoomCapacity)
	case c.RosterCap < 1:
		return fmt.Errorf("roster_cap must be positive, got %d", c.RosterCap)
	case c.StartingBudget < 0:
		return fmt.Errorf("starting_budget must not be negative, got %d", c.StartingBudget)
	case c.NoBidTicks < 1 || c.BidTicks < 1:
		return fmt.Errorf("timer ticks must be positive, got no_bid=%d bid=%d", c.NoBidTicks, c.BidTicks)
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	case c.RevealDelay < 0:
		return fmt.Errorf("reveal_delay must not be negative, got %s", c.RevealDelay)
	case len(c.Categories) == 0:
		return errors.New("at least one category is required")
	}
	return nil
}
