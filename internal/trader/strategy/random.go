package strategy

import (
	"context"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/internal/trader"
)

// RandomConfig tunes RandomStrategy.
type RandomConfig struct {
	// Spread is the maximum relative distance from the last price, e.g. 0.02.
	Spread float64
	// MaxShares is the largest order size.
	MaxShares int64
	// MarketProbability is the chance an order is a market order.
	MarketProbability float64
	// OrdersPerStep is how many orders a step produces.
	OrdersPerStep int
}

// DefaultRandomConfig returns a RandomConfig with reasonable defaults.
func DefaultRandomConfig() RandomConfig {
	return RandomConfig{
		Spread:            0.02,
		MaxShares:         100,
		MarketProbability: 0.1,
		OrdersPerStep:     1,
	}
}

// RandomStrategy quotes random sizes around the last price of a random
// listing, with the occasional market order.
type RandomStrategy struct {
	name core.UserID
	cfg  RandomConfig
	rng  *rand.Rand
}

// NewRandomStrategy creates a new RandomStrategy. Step must not be called
// concurrently.
func NewRandomStrategy(name core.UserID, cfg RandomConfig, seed int64) *RandomStrategy {
	d := DefaultRandomConfig()
	if cfg.Spread <= 0 {
		cfg.Spread = d.Spread
	}
	if cfg.MaxShares <= 0 {
		cfg.MaxShares = d.MaxShares
	}
	if cfg.OrdersPerStep <= 0 {
		cfg.OrdersPerStep = d.OrdersPerStep
	}
	return &RandomStrategy{name: name, cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Step implements Strategy.
func (s *RandomStrategy) Step(ctx context.Context, now int64, mr MarketReader) ([]trader.OrderIntent, []trader.TraderEvent) {
	listings := mr.Listings()
	if len(listings) == 0 {
		return nil, nil
	}
	snap := mr.Snapshot()

	intents := make([]trader.OrderIntent, 0, s.cfg.OrdersPerStep)
	for i := 0; i < s.cfg.OrdersPerStep; i++ {
		l := listings[s.rng.Intn(len(listings))]
		last := l.OpeningPrice
		if sum, ok := snap.BySymbol[l.Symbol]; ok && sum.HasTrade {
			last = sum.Stats.Last
		}

		intent := trader.OrderIntent{
			Symbol: l.Symbol,
			Side:   core.SideBuy,
			Kind:   core.OrderKindLimit,
			Shares: core.Size(1 + s.rng.Int63n(s.cfg.MaxShares)),
		}
		if s.rng.Intn(2) == 1 {
			intent.Side = core.SideSell
		}
		if s.rng.Float64() < s.cfg.MarketProbability {
			intent.Kind = core.OrderKindMarket
		} else {
			intent.Price = s.price(last)
			if !intent.Price.IsPositive() {
				continue
			}
		}
		intents = append(intents, intent)
	}
	return intents, nil
}

func (s *RandomStrategy) price(last decimal.Decimal) decimal.Decimal {
	offset := (s.rng.Float64()*2 - 1) * s.cfg.Spread
	return last.Mul(decimal.NewFromFloat(1 + offset)).Round(2)
}
