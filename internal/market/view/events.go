package view

import "github.com/zappabad/safetrade/internal/orderbook/core"

// MarketEvent wraps a core event with the symbol of the book that produced it.
type MarketEvent struct {
	Symbol string
	Event  core.Event
}
