package trader

import (
	"github.com/shopspring/decimal"

	"github.com/zappabad/safetrade/internal/orderbook/core"
)

// OrderIntent represents a participant's intention to place an order.
type OrderIntent struct {
	Symbol string
	Kind   core.OrderKind
	Side   core.Side
	Price  decimal.Decimal // for limit orders only
	Shares core.Size
}

// TraderEventType indicates the type of trader event.
type TraderEventType int

const (
	TraderEventPlacedOrder TraderEventType = iota
	TraderEventError
)

func (t TraderEventType) String() string {
	switch t {
	case TraderEventPlacedOrder:
		return "placed"
	case TraderEventError:
		return "error"
	default:
		return "unknown"
	}
}

// TraderEvent represents an action or event from an automated participant.
type TraderEvent struct {
	Trader  core.UserID
	Time    int64
	Type    TraderEventType
	Intent  *OrderIntent // optional, for PlacedOrder
	OrderID core.OrderID // set for PlacedOrder
	Message string       // optional, for errors or info
}
