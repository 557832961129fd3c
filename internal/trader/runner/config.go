package runner

import "time"

// Config holds configuration for a bot runner.
type Config struct {
	// TickInterval is the interval between strategy steps.
	TickInterval time.Duration
	// OrderTimeout bounds each step's submissions. Zero uses TickInterval.
	OrderTimeout time.Duration
	// EventBuffer is the size of the runner events channel.
	EventBuffer int
	// BlockOnSlowConsumer makes the runner wait for a full events channel
	// instead of dropping.
	BlockOnSlowConsumer bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: 250 * time.Millisecond,
		EventBuffer:  256,
	}
}
