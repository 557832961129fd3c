package view

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/safetrade/internal/orderbook/core"
)

// Candle summarizes the trades printed during one period.
type Candle struct {
	Start  int64 // unix nanos, a multiple of the period
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume core.Size
	Trades int
}

// Tape keeps a book's recent trade prints and rolls them into candles of
// a fixed period. It is not safe for concurrent use; BookView guards it.
type Tape struct {
	prints    []core.TradeEvent // oldest first
	maxPrints int

	period     int64
	candles    []Candle
	maxCandles int
}

// NewTape keeps up to maxPrints trades and maxCandles candles of the given
// period.
func NewTape(maxPrints int, period time.Duration, maxCandles int) *Tape {
	if maxPrints <= 0 {
		maxPrints = 1
	}
	if period <= 0 {
		period = time.Second
	}
	if maxCandles <= 0 {
		maxCandles = 1
	}
	return &Tape{maxPrints: maxPrints, period: int64(period), maxCandles: maxCandles}
}

// Record adds a trade print and folds it into the current candle.
func (t *Tape) Record(tr core.TradeEvent) {
	t.prints = append(t.prints, tr)
	// Trim in batches so recording stays amortized O(1).
	if len(t.prints) >= 2*t.maxPrints {
		t.prints = append([]core.TradeEvent(nil), t.prints[len(t.prints)-t.maxPrints:]...)
	}

	start := tr.Time - tr.Time%t.period
	if n := len(t.candles); n > 0 && t.candles[n-1].Start >= start {
		// Prints arrive in book order; a late timestamp joins the open candle.
		c := &t.candles[n-1]
		c.High = decimal.Max(c.High, tr.Price)
		c.Low = decimal.Min(c.Low, tr.Price)
		c.Close = tr.Price
		c.Volume += tr.Size
		c.Trades++
		return
	}
	t.candles = append(t.candles, Candle{
		Start:  start,
		Open:   tr.Price,
		High:   tr.Price,
		Low:    tr.Price,
		Close:  tr.Price,
		Volume: tr.Size,
		Trades: 1,
	})
	if len(t.candles) > t.maxCandles {
		t.candles = append([]Candle(nil), t.candles[len(t.candles)-t.maxCandles:]...)
	}
}

// Last returns up to n of the newest prints, oldest first.
func (t *Tape) Last(n int) []core.TradeEvent {
	n = min(n, t.Len())
	if n <= 0 {
		return nil
	}
	return append([]core.TradeEvent(nil), t.prints[len(t.prints)-n:]...)
}

// Candles returns up to n of the newest candles, oldest first.
func (t *Tape) Candles(n int) []Candle {
	n = min(n, len(t.candles))
	if n <= 0 {
		return nil
	}
	return append([]Candle(nil), t.candles[len(t.candles)-n:]...)
}

// Len returns the number of prints retained.
func (t *Tape) Len() int {
	return min(len(t.prints), t.maxPrints)
}
