package view

import (
	"sync"

	"github.com/zappabad/safetrade/internal/orderbook/core"
)

// Summary holds the last trade and session statistics for a symbol.
type Summary struct {
	Stats    core.Stats
	LastSize core.Size
	LastTime int64
	HasTrade bool
}

// MarketSnapshot is a point-in-time snapshot of all symbols that traded.
type MarketSnapshot struct {
	BySymbol map[string]Summary
}

// MarketView maintains the aggregate market state across all books.
type MarketView struct {
	mu        sync.RWMutex
	lastTrade map[string]core.TradeEvent
}

// NewMarketView creates a new MarketView.
func NewMarketView() *MarketView {
	return &MarketView{
		lastTrade: make(map[string]core.TradeEvent),
	}
}

// Apply updates the view with an event from a specific book.
func (v *MarketView) Apply(ev MarketEvent) {
	trade, ok := ev.Event.(core.TradeEvent)
	if !ok {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastTrade[ev.Symbol] = trade
}

// Forget drops the history of a symbol (used when it is re-listed).
func (v *MarketView) Forget(symbol string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.lastTrade, symbol)
}

// Snapshot returns a copy of the current market state.
func (v *MarketView) Snapshot() MarketSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snap := MarketSnapshot{
		BySymbol: make(map[string]Summary, len(v.lastTrade)),
	}
	for sym, trade := range v.lastTrade {
		snap.BySymbol[sym] = Summary{
			Stats:    trade.Stats,
			LastSize: trade.Size,
			LastTime: trade.Time,
			HasTrade: true,
		}
	}
	return snap
}
