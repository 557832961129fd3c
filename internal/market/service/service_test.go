package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/safetrade/internal/orderbook/core"
)

type recorder struct {
	mu   sync.Mutex
	msgs map[core.UserID][]string
}

func newRecorder() *recorder { return &recorder{msgs: map[core.UserID][]string{}} }

func (r *recorder) Deliver(to core.UserID, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs[to] = append(r.msgs[to], msg)
}

func (r *recorder) get(to core.UserID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs[to]...)
}

func px(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func order(id core.OrderID, owner core.UserID, sym string, side core.Side, shares core.Size, price string) *core.Order {
	return &core.Order{ID: id, Owner: owner, Symbol: sym, Side: side, Kind: core.OrderKindLimit, Shares: shares, Price: px(price), Time: int64(id)}
}

func newDirectory(t *testing.T, rec core.Notifier) *Directory {
	t.Helper()
	d := NewDirectory(rec, DefaultConfig(), nil)
	t.Cleanup(d.Close)
	return d
}

func TestDirectoryQuoteUnknownSymbol(t *testing.T) {
	d := newDirectory(t, newRecorder())

	q, err := d.Quote(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Equal(t, "NOPE not found", q)
}

func TestDirectoryRouteUnknownSymbolNotifiesOwner(t *testing.T) {
	rec := newRecorder()
	d := newDirectory(t, rec)

	err := d.Route(context.Background(), order(1, "alice", "NOPE", core.SideBuy, 10, "5"))
	require.NoError(t, err)
	assert.Equal(t, []string{"NOPE not found"}, rec.get("alice"))
}

func TestDirectoryListAndQuote(t *testing.T) {
	d := newDirectory(t, newRecorder())
	d.List("GGGL", "Giggle.com", px("15"))

	q, err := d.Quote(context.Background(), "GGGL")
	require.NoError(t, err)
	assert.Equal(t, "Giggle.com (GGGL)\nPrice: 15.00\thi: 15.00\tlo: 15.00\tvol: 0\nAsk: none\tBid: none", q)

	listings := d.Listings()
	require.Len(t, listings, 1)
	assert.Equal(t, "Giggle.com", listings[0].Company)
}

func TestDirectoryListingsSorted(t *testing.T) {
	d := newDirectory(t, newRecorder())
	d.List("ZZZ", "Zed", px("1"))
	d.List("AAA", "Aye", px("2"))
	d.List("MMM", "Em", px("3"))

	var syms []string
	for _, l := range d.Listings() {
		syms = append(syms, l.Symbol)
	}
	assert.Equal(t, []string{"AAA", "MMM", "ZZZ"}, syms)
}

func TestDirectoryBooksAreIndependent(t *testing.T) {
	rec := newRecorder()
	d := newDirectory(t, rec)
	d.List("AAA", "Aye", px("10"))
	d.List("BBB", "Bee", px("10"))

	ctx := context.Background()
	require.NoError(t, d.Route(ctx, order(1, "s", "AAA", core.SideSell, 5, "10")))
	require.NoError(t, d.Route(ctx, order(2, "b", "BBB", core.SideBuy, 5, "10")))

	a, _ := d.Book("AAA")
	b, _ := d.Book("BBB")
	assert.Equal(t, core.Size(0), a.Stats().Volume)
	assert.Equal(t, core.Size(0), b.Stats().Volume)

	require.NoError(t, d.Route(ctx, order(3, "b", "AAA", core.SideBuy, 5, "11")))
	assert.Equal(t, "You bought:\t5 AAA at 10.00 amt 50.00", rec.get("b")[2])
}

func TestDirectoryRelistReplacesBook(t *testing.T) {
	d := newDirectory(t, newRecorder())
	d.List("X", "Old Co", px("10"))

	ctx := context.Background()
	require.NoError(t, d.Route(ctx, order(1, "s", "X", core.SideSell, 5, "10")))
	old, _ := d.Book("X")

	d.List("X", "New Co", px("20"))
	cur, ok := d.Book("X")
	require.True(t, ok)
	assert.NotSame(t, old, cur)

	q, err := d.Quote(ctx, "X")
	require.NoError(t, err)
	assert.Contains(t, q, "New Co (X)")
	assert.Contains(t, q, "Ask: none")

	l, ok := d.Listing("X")
	require.True(t, ok)
	assert.Equal(t, "20.00", l.OpeningPrice.StringFixed(2))
}

func TestDirectorySnapshotAndEvents(t *testing.T) {
	d := newDirectory(t, newRecorder())
	d.List("X", "X Corp", px("10"))

	ctx := context.Background()
	require.NoError(t, d.Route(ctx, order(1, "s", "X", core.SideSell, 5, "10")))
	require.NoError(t, d.Route(ctx, order(2, "b", "X", core.SideBuy, 5, "10")))

	assert.Eventually(t, func() bool {
		s, ok := d.Snapshot().BySymbol["X"]
		return ok && s.HasTrade && s.LastSize == 5
	}, time.Second, 5*time.Millisecond)

	var trades int
	timeout := time.After(time.Second)
	for trades == 0 {
		select {
		case ev := <-d.Events():
			assert.Equal(t, "X", ev.Symbol)
			if _, ok := ev.Event.(core.TradeEvent); ok {
				trades++
			}
		case <-timeout:
			t.Fatal("timed out waiting for trade event")
		}
	}

	tape, ok := d.TradesLast("X", 10)
	require.True(t, ok)
	assert.Len(t, tape, 1)

	_, ok = d.TradesLast("NOPE", 10)
	assert.False(t, ok)

	candles, ok := d.Candles("X", 10)
	require.True(t, ok)
	require.Len(t, candles, 1)
	assert.Equal(t, 1, candles[0].Trades)

	_, ok = d.Candles("NOPE", 10)
	assert.False(t, ok)
}

func TestDirectoryCloseIsIdempotent(t *testing.T) {
	d := NewDirectory(nil, DefaultConfig(), nil)
	d.List("X", "X Corp", px("10"))
	d.Close()
	d.Close()

	_, ok := <-d.Events()
	assert.False(t, ok)
}

func TestDirectoryZeroConfigNeverStallsWithoutReader(t *testing.T) {
	d := NewDirectory(nil, Config{}, nil)
	t.Cleanup(d.Close)
	d.List("X", "X Corp", px("10"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 5000; i++ {
		side := core.SideSell
		if i%2 == 1 {
			side = core.SideBuy
		}
		require.NoError(t, d.Route(ctx, order(core.OrderID(i+1), "t", "X", side, 1, "10")), "order %d", i)
	}

	assert.Eventually(t, func() bool {
		return d.DroppedEvents()+d.DroppedBookEvents() > 0
	}, time.Second, 5*time.Millisecond)
}

func TestDirectoryRelistDuringRouteNotifiesOnce(t *testing.T) {
	for i := 0; i < 100; i++ {
		rec := newRecorder()
		d := NewDirectory(rec, DefaultConfig(), nil)
		d.List("X", "X Corp", px("10"))

		done := make(chan error, 1)
		go func() {
			done <- d.Route(context.Background(), order(1, "a", "X", core.SideBuy, 1, "9"))
		}()
		d.List("X", "X Corp", px("10"))
		require.NoError(t, <-done)

		accepted := 0
		for _, msg := range rec.get("a") {
			if strings.HasPrefix(msg, "New Order:") {
				accepted++
			}
		}
		d.Close()
		require.Equal(t, 1, accepted, "iteration %d: %v", i, rec.get("a"))
	}
}
