package core

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Side represents the order side: buy or sell.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// OrderKind represents the order type: limit or market.
type OrderKind uint8

const (
	OrderKindLimit OrderKind = iota
	OrderKindMarket
)

func (k OrderKind) String() string {
	switch k {
	case OrderKindLimit:
		return "LIMIT"
	case OrderKindMarket:
		return "MARKET"
	default:
		return "UNKNOWN"
	}
}

// Size represents a share quantity.
type Size int64

func (s Size) String() string { return strconv.FormatInt(int64(s), 10) }

// OrderID uniquely identifies an order.
type OrderID int64

// UserID identifies the participant who placed the order (screen name).
type UserID string

// Order is a request to trade. Identity fields never change after
// submission; Shares is the remaining quantity and only shrinks through
// executions.
type Order struct {
	ID     OrderID
	Owner  UserID
	Symbol string
	Side   Side
	Kind   OrderKind
	Shares Size
	Price  decimal.Decimal // limit only
	Time   int64           // unix nanos set by the gateway
}

func (o *Order) IsBuy() bool    { return o.Side == SideBuy }
func (o *Order) IsSell() bool   { return o.Side == SideSell }
func (o *Order) IsLimit() bool  { return o.Kind == OrderKindLimit }
func (o *Order) IsMarket() bool { return o.Kind == OrderKindMarket }

// IsFilled returns true if the order has no remaining shares.
func (o *Order) IsFilled() bool { return o.Shares <= 0 }

// SubtractShares removes n shares from the order. Taking more than the
// order holds, or a negative amount, means the book is corrupt.
func (o *Order) SubtractShares(n Size) {
	if n < 0 || n > o.Shares {
		panic(fmt.Sprintf("core: order %d: cannot subtract %d shares from %d", o.ID, n, o.Shares))
	}
	o.Shares -= n
}

func (o *Order) String() string {
	price := "market"
	if o.IsLimit() {
		price = FormatMoney(o.Price)
	}
	return fmt.Sprintf("Order{id=%d owner=%s symbol=%s side=%s kind=%s shares=%d price=%s}",
		o.ID, o.Owner, o.Symbol, o.Side, o.Kind, o.Shares, price)
}

// Stats holds the trading-session statistics of a book.
type Stats struct {
	Low    decimal.Decimal
	High   decimal.Decimal
	Last   decimal.Decimal
	Volume Size
}

func (s Stats) String() string {
	return fmt.Sprintf("Stats{last=%s high=%s low=%s vol=%d}",
		FormatMoney(s.Last), FormatMoney(s.High), FormatMoney(s.Low), s.Volume)
}
