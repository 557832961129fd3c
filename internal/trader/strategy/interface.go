package strategy

import (
	"context"

	"github.com/zappabad/safetrade/internal/broker"
	"github.com/zappabad/safetrade/internal/market"
	marketview "github.com/zappabad/safetrade/internal/market/view"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/internal/trader"
)

// MarketReader provides read-only access to market data.
type MarketReader interface {
	Listings() []market.Listing
	Snapshot() marketview.MarketSnapshot
}

// OrderSender provides the ability to send orders to the market.
type OrderSender interface {
	PlaceOrder(ctx context.Context, token string, req broker.OrderRequest) (core.OrderID, error)
}

// Strategy is the interface for trading strategies.
type Strategy interface {
	// Step is called on each tick. Returns order intents and any events to publish.
	Step(ctx context.Context, now int64, mr MarketReader) ([]trader.OrderIntent, []trader.TraderEvent)
}
