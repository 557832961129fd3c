package core

import "github.com/shopspring/decimal"

// Event is the interface for all orderbook events.
type Event interface {
	isEvent()
}

// OrderAcceptedEvent is emitted when an order reaches its book.
type OrderAcceptedEvent struct {
	OrderID OrderID
	Owner   UserID
	Symbol  string
	Company string
	Side    Side
	Kind    OrderKind
	Shares  Size
	Price   decimal.Decimal // zero for market orders
	Rested  bool            // false when the order carried no shares
	Time    int64
}

func (OrderAcceptedEvent) isEvent() {}

// TradeEvent is emitted for every execution.
type TradeEvent struct {
	Symbol string
	Price  decimal.Decimal
	Size   Size
	Time   int64

	BuyOrderID  OrderID
	Buyer       UserID
	SellOrderID OrderID
	Seller      UserID

	// Book statistics after the execution.
	Stats Stats
}

func (TradeEvent) isEvent() {}

// OrderFilledEvent is emitted when an order is fully filled and leaves its queue.
type OrderFilledEvent struct {
	OrderID OrderID
	Owner   UserID
	Symbol  string
	Side    Side
	Time    int64
}

func (OrderFilledEvent) isEvent() {}
