package view

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/safetrade/internal/orderbook/core"
)

// RestingOrder is a copy of an order waiting in a queue.
type RestingOrder struct {
	ID     core.OrderID
	Owner  core.UserID
	Side   core.Side
	Kind   core.OrderKind
	Price  decimal.Decimal
	Shares core.Size
}

// BookSnapshot is a consistent copy of one book, taken by its owner.
type BookSnapshot struct {
	Symbol  string
	Company string
	Stats   core.Stats
	Bids    []RestingOrder // best first
	Asks    []RestingOrder // best first
}

// NewBookSnapshot copies the state of b. The caller must own b.
func NewBookSnapshot(b *core.Book) BookSnapshot {
	return BookSnapshot{
		Symbol:  b.Symbol(),
		Company: b.Company(),
		Stats:   b.Stats(),
		Bids:    resting(b.Bids()),
		Asks:    resting(b.Asks()),
	}
}

func resting(orders []core.Order) []RestingOrder {
	out := make([]RestingOrder, len(orders))
	for i, o := range orders {
		out[i] = RestingOrder{ID: o.ID, Owner: o.Owner, Side: o.Side, Kind: o.Kind, Price: o.Price, Shares: o.Shares}
	}
	return out
}

// BookView maintains a read-only view of a book's trading activity built
// from its event stream. It is thread-safe and returns copies.
type BookView struct {
	mu       sync.RWMutex
	stats    core.Stats
	accepted int64
	filled   int64
	tape     *Tape
}

// NewBookView creates a new BookView seeded with the book's opening stats.
func NewBookView(opening core.Stats, tape *Tape) *BookView {
	if tape == nil {
		tape = NewTape(1000, 5*time.Second, 120)
	}
	return &BookView{
		stats: opening,
		tape:  tape,
	}
}

// Apply processes an event and updates the view accordingly.
func (v *BookView) Apply(ev core.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch e := ev.(type) {
	case core.TradeEvent:
		v.tape.Record(e)
		v.stats = e.Stats
	case core.OrderAcceptedEvent:
		v.accepted++
	case core.OrderFilledEvent:
		v.filled++
	}
}

// Stats returns the statistics as of the last applied trade.
func (v *BookView) Stats() core.Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats
}

// Counts returns how many orders were accepted and fully filled.
func (v *BookView) Counts() (accepted, filled int64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.accepted, v.filled
}

// TradesLast returns the last n trades in chronological order.
func (v *BookView) TradesLast(n int) []core.TradeEvent {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tape.Last(n)
}

// Candles returns the last n candles in chronological order.
func (v *BookView) Candles(n int) []Candle {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tape.Candles(n)
}
