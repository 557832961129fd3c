package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Book is the order book and matching engine for one listed instrument.
// It has no goroutines, mutexes, channels or time calls; callers serialize
// access (see the orderbook service).
type Book struct {
	symbol  string
	company string

	low    decimal.Decimal
	high   decimal.Decimal
	last   decimal.Decimal
	volume Size

	bids *orderQueue
	asks *orderQueue
}

// NewBook creates a book whose low, high and last prices all start at the
// opening price.
func NewBook(symbol, company string, opening decimal.Decimal) *Book {
	return &Book{
		symbol:  symbol,
		company: company,
		low:     opening,
		high:    opening,
		last:    opening,
		bids:    newOrderQueue(DirectionFor(SideBuy)),
		asks:    newOrderQueue(DirectionFor(SideSell)),
	}
}

func (b *Book) Symbol() string  { return b.symbol }
func (b *Book) Company() string { return b.company }

// Stats returns the session statistics.
func (b *Book) Stats() Stats {
	return Stats{Low: b.low, High: b.high, Last: b.last, Volume: b.volume}
}

// Bids returns copies of the resting buy orders, best first.
func (b *Book) Bids() []Order { return b.bids.sorted() }

// Asks returns copies of the resting sell orders, best first.
func (b *Book) Asks() []Order { return b.asks.sorted() }

// BestBid returns a copy of the top buy order.
func (b *Book) BestBid() (Order, bool) { return front(b.bids) }

// BestAsk returns a copy of the top sell order.
func (b *Book) BestAsk() (Order, bool) { return front(b.asks) }

// RestingShares is the total remaining quantity across both queues.
func (b *Book) RestingShares() Size { return b.bids.totalShares() + b.asks.totalShares() }

func front(q *orderQueue) (Order, bool) {
	o := q.peek()
	if o == nil {
		return Order{}, false
	}
	return *o, true
}

// Quote renders a snapshot of the book's prices and top of book.
func (b *Book) Quote() string {
	return fmt.Sprintf("%s (%s)\nPrice: %s\thi: %s\tlo: %s\tvol: %d\n%s\t%s",
		b.company, b.symbol,
		FormatMoney(b.last), FormatMoney(b.high), FormatMoney(b.low), b.volume,
		quoteSide("Ask", b.asks.peek()), quoteSide("Bid", b.bids.peek()))
}

// PlaceOrder accepts an order into the book and runs the matching loop
// until no compatible pair remains at the top of the book. The order is
// owned by the book afterwards and is mutated in place as it fills.
//
// A nil order, a symbol mismatch or negative shares panic: routing such an
// order here is a bug in the caller.
func (b *Book) PlaceOrder(o *Order) []Event {
	if o == nil {
		panic("core: nil order")
	}
	if o.Symbol != b.symbol {
		panic(fmt.Sprintf("core: order %d for %q routed to book %q", o.ID, o.Symbol, b.symbol))
	}
	if o.Shares < 0 {
		panic(fmt.Sprintf("core: order %d has negative shares %d", o.ID, o.Shares))
	}

	accepted := OrderAcceptedEvent{
		OrderID: o.ID,
		Owner:   o.Owner,
		Symbol:  o.Symbol,
		Company: b.company,
		Side:    o.Side,
		Kind:    o.Kind,
		Shares:  o.Shares,
		Time:    o.Time,
	}
	if o.IsLimit() {
		accepted.Price = o.Price
	}
	if o.Shares > 0 {
		if o.IsBuy() {
			b.bids.add(o)
		} else {
			b.asks.add(o)
		}
		accepted.Rested = true
	}

	events := []Event{accepted}
	return b.match(o.Time, events)
}

// match executes top-of-book pairs until the spread no longer crosses or a
// side is empty.
func (b *Book) match(now int64, events []Event) []Event {
	for {
		buy, sell := b.bids.peek(), b.asks.peek()
		if buy == nil || sell == nil {
			return events
		}

		var price decimal.Decimal
		switch {
		case buy.IsLimit() && sell.IsLimit():
			if sell.Price.GreaterThan(buy.Price) {
				return events
			}
			price = sell.Price
		case buy.IsMarket() && sell.IsMarket():
			price = b.last
		case sell.IsLimit():
			price = sell.Price
		default:
			price = buy.Price
		}

		events = b.execute(sell, buy, price, now, events)
	}
}

// execute trades the shared quantity of the two front orders at price.
func (b *Book) execute(sell, buy *Order, price decimal.Decimal, now int64, events []Event) []Event {
	n := sell.Shares
	if buy.Shares < n {
		n = buy.Shares
	}

	b.volume += n
	if price.GreaterThan(b.high) {
		b.high = price
	}
	if price.LessThan(b.low) {
		b.low = price
	}
	b.last = price

	sell.SubtractShares(n)
	buy.SubtractShares(n)

	events = append(events, TradeEvent{
		Symbol:      b.symbol,
		Price:       price,
		Size:        n,
		Time:        now,
		BuyOrderID:  buy.ID,
		Buyer:       buy.Owner,
		SellOrderID: sell.ID,
		Seller:      sell.Owner,
		Stats:       b.Stats(),
	})

	if buy.IsFilled() {
		b.bids.popFront()
		events = append(events, filled(buy, b.symbol, now))
	}
	if sell.IsFilled() {
		b.asks.popFront()
		events = append(events, filled(sell, b.symbol, now))
	}
	return events
}

func filled(o *Order, symbol string, now int64) OrderFilledEvent {
	return OrderFilledEvent{OrderID: o.ID, Owner: o.Owner, Symbol: symbol, Side: o.Side, Time: now}
}

func (b *Book) String() string {
	return fmt.Sprintf("Book{symbol=%s company=%q %s bids=%d asks=%d}",
		b.symbol, b.company, b.Stats(), b.bids.Len(), b.asks.Len())
}
