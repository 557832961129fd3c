package view

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zappabad/safetrade/internal/orderbook/core"
)

func TestMarketViewKeepsLastTrade(t *testing.T) {
	v := NewMarketView()
	v.Apply(MarketEvent{Symbol: "GGGL", Event: core.OrderAcceptedEvent{Symbol: "GGGL"}})
	if n := len(v.Snapshot().BySymbol); n != 0 {
		t.Fatalf("expected no summaries from non-trade events, got %d", n)
	}

	for i, px := range []string{"10.00", "10.25"} {
		v.Apply(MarketEvent{Symbol: "GGGL", Event: core.TradeEvent{
			Symbol: "GGGL",
			Price:  decimal.RequireFromString(px),
			Size:   core.Size(i + 1),
			Time:   int64(i),
			Stats:  core.Stats{Last: decimal.RequireFromString(px), Volume: core.Size(i + 1)},
		}})
	}

	s, ok := v.Snapshot().BySymbol["GGGL"]
	if !ok || !s.HasTrade {
		t.Fatal("expected a summary for GGGL")
	}
	if s.LastSize != 2 || s.Stats.Last.StringFixed(2) != "10.25" {
		t.Errorf("expected last 2 @ 10.25, got %d @ %s", s.LastSize, s.Stats.Last.StringFixed(2))
	}
}

func TestMarketViewForget(t *testing.T) {
	v := NewMarketView()
	v.Apply(MarketEvent{Symbol: "NSTL", Event: core.TradeEvent{Symbol: "NSTL", Price: decimal.NewFromInt(1), Size: 1}})
	v.Forget("NSTL")
	if _, ok := v.Snapshot().BySymbol["NSTL"]; ok {
		t.Error("expected NSTL to be forgotten")
	}
}
