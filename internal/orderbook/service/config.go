package service

import "time"

// Config holds configuration for the orderbook service.
type Config struct {
	// CommandBuffer is the size of the inbound command channel.
	CommandBuffer int
	// EventBuffer is the size of the internal authoritative event channel.
	EventBuffer int
	// TradeTapeSize is how many trade prints the tape keeps.
	TradeTapeSize int
	// CandlePeriod is the width of each tape candle.
	CandlePeriod time.Duration
	// CandleCount is how many candles the tape keeps.
	CandleCount int
	// BlockOnSlowConsumer makes the dispatcher wait for a full external
	// events channel instead of dropping. A stalled consumer then stalls
	// the book, so leave it off unless every reader drains Events.
	BlockOnSlowConsumer bool
	// ExternalEventBuffer is the size of the external events channel.
	ExternalEventBuffer int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		CommandBuffer:       256,
		EventBuffer:         1024,
		TradeTapeSize:       1000,
		CandlePeriod:        5 * time.Second,
		CandleCount:         120,
		ExternalEventBuffer: 256,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CommandBuffer <= 0 {
		c.CommandBuffer = d.CommandBuffer
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = d.EventBuffer
	}
	if c.TradeTapeSize <= 0 {
		c.TradeTapeSize = d.TradeTapeSize
	}
	if c.CandlePeriod <= 0 {
		c.CandlePeriod = d.CandlePeriod
	}
	if c.CandleCount <= 0 {
		c.CandleCount = d.CandleCount
	}
	if c.ExternalEventBuffer <= 0 {
		c.ExternalEventBuffer = d.ExternalEventBuffer
	}
	return c
}
