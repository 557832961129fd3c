package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

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

func limitOrder(id core.OrderID, owner core.UserID, side core.Side, shares core.Size, price string) *core.Order {
	return &core.Order{ID: id, Owner: owner, Symbol: "X", Side: side, Kind: core.OrderKindLimit, Shares: shares, Price: px(price), Time: int64(id)}
}

func TestServicePlaceDeliversNotices(t *testing.T) {
	rec := newRecorder()
	svc := NewService("X", "X Corp", px("50"), rec, DefaultConfig(), nil)
	defer svc.Close()

	ctx := context.Background()
	if err := svc.PlaceOrder(ctx, limitOrder(1, "seller", core.SideSell, 10, "48")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.PlaceOrder(ctx, limitOrder(2, "buyer", core.SideBuy, 10, "52")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Notices are delivered before PlaceOrder returns.
	buyer := rec.get("buyer")
	if len(buyer) != 2 {
		t.Fatalf("expected 2 buyer messages, got %d: %v", len(buyer), buyer)
	}
	if buyer[1] != "You bought:\t10 X at 48.00 amt 480.00" {
		t.Errorf("unexpected buyer message %q", buyer[1])
	}
	seller := rec.get("seller")
	if len(seller) != 2 || seller[1] != "You sold:\t10 X at 48.00 amt 480.00" {
		t.Errorf("unexpected seller messages %v", seller)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Stats.Volume != 10 || len(snap.Bids) != 0 || len(snap.Asks) != 0 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestServiceQuote(t *testing.T) {
	svc := NewService("GGGL", "Giggle.com", px("15"), nil, DefaultConfig(), nil)
	defer svc.Close()

	q, err := svc.Quote(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Giggle.com (GGGL)\nPrice: 15.00\thi: 15.00\tlo: 15.00\tvol: 0\nAsk: none\tBid: none"
	if q != want {
		t.Errorf("expected %q, got %q", want, q)
	}
}

func TestServiceConcurrent(t *testing.T) {
	svc := NewService("X", "X Corp", px("100"), newRecorder(), DefaultConfig(), nil)
	defer svc.Close()

	ctx := context.Background()
	var wg sync.WaitGroup

	numOrders := 200
	wg.Add(numOrders)
	for i := 0; i < numOrders; i++ {
		go func(i int) {
			defer wg.Done()
			side := core.SideBuy
			if i%2 == 1 {
				side = core.SideSell
			}
			price := decimal.NewFromInt(int64(95 + i%10))
			o := &core.Order{ID: core.OrderID(i + 1), Owner: "t", Symbol: "X", Side: side, Kind: core.OrderKindLimit, Shares: 3, Price: price}
			if err := svc.PlaceOrder(ctx, o); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Bids) > 0 && len(snap.Asks) > 0 && !snap.Asks[0].Price.GreaterThan(snap.Bids[0].Price) {
		t.Errorf("book left crossed: bid %s ask %s", snap.Bids[0].Price, snap.Asks[0].Price)
	}

	var resting core.Size
	for _, o := range append(snap.Bids, snap.Asks...) {
		resting += o.Shares
	}
	if want := core.Size(numOrders*3) - 2*snap.Stats.Volume; resting != want {
		t.Errorf("expected %d resting shares, got %d", want, resting)
	}
}

func TestServiceEvents(t *testing.T) {
	svc := NewService("X", "X Corp", px("10"), nil, DefaultConfig(), nil)
	defer svc.Close()

	events := svc.Events()
	if err := svc.PlaceOrder(context.Background(), limitOrder(1, "a", core.SideBuy, 1, "9")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case ev := <-events:
		if _, ok := ev.(core.OrderAcceptedEvent); !ok {
			t.Errorf("expected OrderAcceptedEvent, got %T", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestServiceTradeTape(t *testing.T) {
	svc := NewService("X", "X Corp", px("10"), nil, DefaultConfig(), nil)
	defer svc.Close()

	ctx := context.Background()
	_ = svc.PlaceOrder(ctx, limitOrder(1, "s", core.SideSell, 5, "10"))
	_ = svc.PlaceOrder(ctx, limitOrder(2, "b", core.SideBuy, 5, "10"))

	deadline := time.Now().Add(time.Second)
	for len(svc.TradesLast(10)) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	trades := svc.TradesLast(10)
	if len(trades) != 1 || trades[0].Size != 5 {
		t.Fatalf("expected one trade of 5, got %+v", trades)
	}
	if svc.Stats().Volume != 5 {
		t.Errorf("expected view volume 5, got %d", svc.Stats().Volume)
	}
	candles := svc.Candles(10)
	if len(candles) != 1 || candles[0].Volume != 5 || !candles[0].Close.Equal(px("10")) {
		t.Errorf("expected one candle closing at 10 with volume 5, got %+v", candles)
	}
}

func TestServiceClosed(t *testing.T) {
	svc := NewService("X", "X Corp", px("10"), nil, DefaultConfig(), nil)
	svc.Close()

	if err := svc.PlaceOrder(context.Background(), limitOrder(1, "a", core.SideBuy, 1, "9")); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := svc.Quote(context.Background()); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestServiceZeroConfigNeverStallsWithoutReader(t *testing.T) {
	svc := NewService("X", "X Corp", px("10"), nil, Config{}, nil)
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Nobody reads Events; every pair trades and emits four events.
	for i := 0; i < 5000; i++ {
		side := core.SideSell
		if i%2 == 1 {
			side = core.SideBuy
		}
		if err := svc.PlaceOrder(ctx, limitOrder(core.OrderID(i+1), "t", side, 1, "10")); err != nil {
			t.Fatalf("book stalled after %d orders: %v", i, err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for svc.DroppedExternalEvents() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.DroppedExternalEvents() == 0 {
		t.Error("expected dropped external events to be counted")
	}
}

func TestServicePlaceRacingCloseRunsAtMostOnce(t *testing.T) {
	for i := 0; i < 200; i++ {
		rec := newRecorder()
		svc := NewService("X", "X Corp", px("10"), rec, DefaultConfig(), nil)

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.PlaceOrder(context.Background(), limitOrder(1, "a", core.SideBuy, 1, "9"))
		}()
		svc.Close()
		err := <-errCh

		// An answered order was placed; ErrClosed means it never ran.
		notices := len(rec.get("a"))
		switch err {
		case nil:
			if notices != 1 {
				t.Fatalf("iteration %d: placed order delivered %d notices", i, notices)
			}
		case ErrClosed:
			if notices != 0 {
				t.Fatalf("iteration %d: ErrClosed but order ran (%d notices)", i, notices)
			}
		default:
			t.Fatalf("iteration %d: unexpected error %v", i, err)
		}
	}
}
