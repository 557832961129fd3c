package core

import "fmt"

// Notice is a text message addressed to one participant.
type Notice struct {
	To   UserID
	Text string
}

// Notifier delivers notices to participants. Implementations must not
// block and must not fail the caller; an unreachable participant simply
// misses the message.
type Notifier interface {
	Deliver(to UserID, msg string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(to UserID, msg string)

func (f NotifierFunc) Deliver(to UserID, msg string) { f(to, msg) }

// Notices renders the participant messages for an event. Trades produce
// the buyer's notice first, then the seller's.
func Notices(ev Event) []Notice {
	switch e := ev.(type) {
	case OrderAcceptedEvent:
		return []Notice{{To: e.Owner, Text: acceptedText(e)}}
	case TradeEvent:
		return []Notice{
			{To: e.Buyer, Text: executionText("You bought", e)},
			{To: e.Seller, Text: executionText("You sold", e)},
		}
	default:
		return nil
	}
}

func acceptedText(e OrderAcceptedEvent) string {
	side := "Buy"
	if e.Side == SideSell {
		side = "Sell"
	}
	at := "market"
	if e.Kind == OrderKindLimit {
		at = "$" + FormatMoney(e.Price)
	}
	return fmt.Sprintf("New Order:\t%s %s(%s)\n%d shares at %s", side, e.Symbol, e.Company, e.Shares, at)
}

func executionText(verb string, e TradeEvent) string {
	return fmt.Sprintf("%s:\t%d %s at %s amt %s",
		verb, e.Size, e.Symbol, FormatMoney(e.Price), FormatMoney(Amount(e.Price, e.Size)))
}

func quoteSide(label string, o *Order) string {
	if o == nil {
		return label + ": none"
	}
	price := "market"
	if o.IsLimit() {
		price = FormatMoney(o.Price)
	}
	return fmt.Sprintf("%s: %s size: %d", label, price, o.Shares)
}
