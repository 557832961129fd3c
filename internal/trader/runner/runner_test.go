package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zappabad/safetrade/internal/broker"
	"github.com/zappabad/safetrade/internal/market"
	marketview "github.com/zappabad/safetrade/internal/market/view"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/internal/trader"
	"github.com/zappabad/safetrade/internal/trader/strategy"
)

type emptyMarket struct{}

func (emptyMarket) Listings() []market.Listing          { return nil }
func (emptyMarket) Snapshot() marketview.MarketSnapshot { return marketview.MarketSnapshot{} }

type fixedStrategy struct{ intent trader.OrderIntent }

func (s fixedStrategy) Step(context.Context, int64, strategy.MarketReader) ([]trader.OrderIntent, []trader.TraderEvent) {
	return []trader.OrderIntent{s.intent}, nil
}

type sender struct {
	mu     sync.Mutex
	tokens []string
	fail   bool
}

func (s *sender) PlaceOrder(_ context.Context, token string, _ broker.OrderRequest) (core.OrderID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("rejected")
	}
	s.tokens = append(s.tokens, token)
	return core.OrderID(len(s.tokens)), nil
}

func waitEvent(t *testing.T, r *Runner) trader.TraderEvent {
	t.Helper()
	select {
	case ev := <-r.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for runner event")
	}
	return trader.TraderEvent{}
}

func TestRunnerSubmitsIntents(t *testing.T) {
	snd := &sender{}
	cfg := Config{TickInterval: 5 * time.Millisecond, EventBuffer: 16}
	strat := fixedStrategy{intent: trader.OrderIntent{Symbol: "X", Side: core.SideBuy, Kind: core.OrderKindMarket, Shares: 1}}

	r := NewRunner(cfg, "bot1", "tok", strat, emptyMarket{}, snd, nil)
	ev := waitEvent(t, r)
	r.Close()

	if ev.Type != trader.TraderEventPlacedOrder {
		t.Fatalf("expected placed event, got %s", ev.Type)
	}
	if ev.Trader != "bot1" || ev.OrderID == 0 {
		t.Errorf("unexpected event %+v", ev)
	}
	snd.mu.Lock()
	defer snd.mu.Unlock()
	if len(snd.tokens) == 0 || snd.tokens[0] != "tok" {
		t.Errorf("expected orders sent with session token, got %v", snd.tokens)
	}
}

func TestRunnerReportsErrors(t *testing.T) {
	snd := &sender{fail: true}
	cfg := Config{TickInterval: 5 * time.Millisecond, EventBuffer: 16}
	strat := fixedStrategy{intent: trader.OrderIntent{Symbol: "X", Side: core.SideSell, Kind: core.OrderKindMarket, Shares: 1}}

	r := NewRunner(cfg, "bot1", "tok", strat, emptyMarket{}, snd, nil)
	defer r.Close()

	ev := waitEvent(t, r)
	if ev.Type != trader.TraderEventError || ev.Message != "rejected" {
		t.Errorf("expected error event, got %+v", ev)
	}
}

func TestRunnerCloseClosesEvents(t *testing.T) {
	r := NewRunner(DefaultConfig(), "bot1", "tok", fixedStrategy{}, emptyMarket{}, &sender{}, nil)
	r.Close()
	r.Close()
	for range r.Events() {
	}
}

func TestRunnerKeepsTradingWithoutReader(t *testing.T) {
	snd := &sender{}
	cfg := Config{TickInterval: time.Millisecond, EventBuffer: 1}
	strat := fixedStrategy{intent: trader.OrderIntent{Symbol: "X", Side: core.SideBuy, Kind: core.OrderKindMarket, Shares: 1}}

	r := NewRunner(cfg, "bot1", "tok", strat, emptyMarket{}, snd, nil)
	defer r.Close()

	deadline := time.Now().Add(2 * time.Second)
	for r.DroppedEvents() < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if r.DroppedEvents() < 5 {
		t.Fatalf("expected events dropped while nobody reads, got %d", r.DroppedEvents())
	}
	snd.mu.Lock()
	defer snd.mu.Unlock()
	if len(snd.tokens) < 5 {
		t.Errorf("expected the runner to keep submitting, got %d orders", len(snd.tokens))
	}
}

func TestRunnerBlockingCloseReturns(t *testing.T) {
	cfg := Config{TickInterval: time.Millisecond, EventBuffer: 1, BlockOnSlowConsumer: true}
	strat := fixedStrategy{intent: trader.OrderIntent{Symbol: "X", Side: core.SideBuy, Kind: core.OrderKindMarket, Shares: 1}}

	r := NewRunner(cfg, "bot1", "tok", strat, emptyMarket{}, &sender{}, nil)
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked behind a full events channel")
	}
	if r.DroppedEvents() != 0 {
		t.Errorf("expected no drops when blocking, got %d", r.DroppedEvents())
	}
}
