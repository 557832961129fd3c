package service

import (
	orderbookservice "github.com/zappabad/safetrade/internal/orderbook/service"
)

// Config holds configuration for the directory.
type Config struct {
	// Book is the configuration for each orderbook service.
	Book orderbookservice.Config
	// MarketEventBuffer is the size of the consolidated market events channel.
	MarketEventBuffer int
	// BlockOnSlowConsumer makes book forwarders wait for a full market
	// events channel instead of dropping.
	BlockOnSlowConsumer bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Book:              orderbookservice.DefaultConfig(),
		MarketEventBuffer: 1024,
	}
}
