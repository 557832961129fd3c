package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func px(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func limit(id OrderID, owner UserID, symbol string, side Side, shares Size, price string) *Order {
	return &Order{ID: id, Owner: owner, Symbol: symbol, Side: side, Kind: OrderKindLimit, Shares: shares, Price: px(price), Time: int64(id)}
}

func market(id OrderID, owner UserID, symbol string, side Side, shares Size) *Order {
	return &Order{ID: id, Owner: owner, Symbol: symbol, Side: side, Kind: OrderKindMarket, Shares: shares, Time: int64(id)}
}

func collectNotices(events []Event) []Notice {
	var out []Notice
	for _, ev := range events {
		out = append(out, Notices(ev)...)
	}
	return out
}

func trades(events []Event) []TradeEvent {
	var out []TradeEvent
	for _, ev := range events {
		if tr, ok := ev.(TradeEvent); ok {
			out = append(out, tr)
		}
	}
	return out
}

func TestNewBookOpeningStats(t *testing.T) {
	b := NewBook("GGGL", "Giggle.com", px("15.00"))
	st := b.Stats()
	if !st.Low.Equal(px("15")) || !st.High.Equal(px("15")) || !st.Last.Equal(px("15")) {
		t.Errorf("expected low=high=last=15.00, got %s", st)
	}
	if st.Volume != 0 {
		t.Errorf("expected volume 0, got %d", st.Volume)
	}
}

func TestLimitBuyWithoutAsk(t *testing.T) {
	b := NewBook("GGGL", "Giggle.com", px("15.00"))

	events := b.PlaceOrder(limit(1, "alice", "GGGL", SideBuy, 100, "10.00"))

	notices := collectNotices(events)
	if len(notices) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(notices))
	}
	want := "New Order:\tBuy GGGL(Giggle.com)\n100 shares at $10.00"
	if notices[0].Text != want {
		t.Errorf("expected %q, got %q", want, notices[0].Text)
	}
	if notices[0].To != "alice" {
		t.Errorf("expected notice to alice, got %s", notices[0].To)
	}
	if len(trades(events)) != 0 {
		t.Errorf("expected no trades")
	}
	if len(b.Bids()) != 1 {
		t.Errorf("expected 1 resting bid, got %d", len(b.Bids()))
	}
}

func TestMarketOrderAcceptedText(t *testing.T) {
	b := NewBook("GGGL", "Giggle.com", px("15.00"))
	events := b.PlaceOrder(market(1, "bob", "GGGL", SideSell, 7))
	want := "New Order:\tSell GGGL(Giggle.com)\n7 shares at market"
	if got := collectNotices(events)[0].Text; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCrossingLimitsExecuteAtAsk(t *testing.T) {
	b := NewBook("X", "X Corp", px("50.00"))

	b.PlaceOrder(limit(1, "seller", "X", SideSell, 10, "48.00"))
	events := b.PlaceOrder(limit(2, "buyer", "X", SideBuy, 10, "52.00"))

	trs := trades(events)
	if len(trs) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trs))
	}
	if !trs[0].Price.Equal(px("48")) {
		t.Errorf("expected price 48.00, got %s", trs[0].Price)
	}
	st := b.Stats()
	if st.Volume != 10 {
		t.Errorf("expected volume 10, got %d", st.Volume)
	}
	if !st.Last.Equal(px("48")) || !st.Low.Equal(px("48")) || !st.High.Equal(px("50")) {
		t.Errorf("unexpected stats %s", st)
	}
	if len(b.Bids()) != 0 || len(b.Asks()) != 0 {
		t.Errorf("expected empty book, got %d bids %d asks", len(b.Bids()), len(b.Asks()))
	}

	notices := collectNotices(events)
	// accept, bought, sold
	if len(notices) != 3 {
		t.Fatalf("expected 3 notices, got %d", len(notices))
	}
	if notices[1].To != "buyer" || notices[1].Text != "You bought:\t10 X at 48.00 amt 480.00" {
		t.Errorf("unexpected buyer notice %+v", notices[1])
	}
	if notices[2].To != "seller" || notices[2].Text != "You sold:\t10 X at 48.00 amt 480.00" {
		t.Errorf("unexpected seller notice %+v", notices[2])
	}
}

func TestMarketBuyRestsWithoutAsk(t *testing.T) {
	b := NewBook("X", "X Corp", px("50.00"))
	events := b.PlaceOrder(market(1, "buyer", "X", SideBuy, 5))

	if len(trades(events)) != 0 {
		t.Fatalf("expected no trades")
	}
	top, ok := b.BestBid()
	if !ok || top.ID != 1 || top.Shares != 5 {
		t.Errorf("expected market buy at top of bids, got %v ok=%v", top, ok)
	}

	// A later limit bid must rank behind the market order.
	b.PlaceOrder(limit(2, "other", "X", SideBuy, 5, "99.00"))
	top, _ = b.BestBid()
	if top.ID != 1 {
		t.Errorf("expected market order to stay in front, got %d", top.ID)
	}

	// A compatible ask arrives and fills it at the ask's price.
	events = b.PlaceOrder(limit(3, "seller", "X", SideSell, 5, "51.00"))
	trs := trades(events)
	if len(trs) != 1 || trs[0].BuyOrderID != 1 || !trs[0].Price.Equal(px("51")) {
		t.Fatalf("expected market buy filled at 51.00, got %+v", trs)
	}
}

func TestPartialFillLeavesRemainderInFront(t *testing.T) {
	b := NewBook("X", "X Corp", px("20.00"))
	b.PlaceOrder(limit(1, "seller", "X", SideSell, 100, "20.00"))
	events := b.PlaceOrder(limit(2, "buyer", "X", SideBuy, 40, "20.00"))

	trs := trades(events)
	if len(trs) != 1 || trs[0].Size != 40 || !trs[0].Price.Equal(px("20")) {
		t.Fatalf("expected 40 @ 20.00, got %+v", trs)
	}
	ask, ok := b.BestAsk()
	if !ok || ask.ID != 1 || ask.Shares != 60 {
		t.Errorf("expected ask 1 with 60 remaining, got %v", ask)
	}
	if len(b.Bids()) != 0 {
		t.Errorf("expected buy order removed")
	}
}

func TestMatchingPriceCases(t *testing.T) {
	tests := []struct {
		name  string
		first *Order
		next  *Order
		want  string
	}{
		{"both market uses last", market(1, "s", "X", SideSell, 5), market(2, "b", "X", SideBuy, 5), "30.00"},
		{"limit ask market bid", limit(1, "s", "X", SideSell, 5, "31.25"), market(2, "b", "X", SideBuy, 5), "31.25"},
		{"limit bid market ask", limit(1, "b", "X", SideBuy, 5, "29.50"), market(2, "s", "X", SideSell, 5), "29.50"},
		{"resting bid crossed by ask", limit(1, "b", "X", SideBuy, 5, "33.00"), limit(2, "s", "X", SideSell, 5, "32.00"), "32.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBook("X", "X Corp", px("30.00"))
			b.PlaceOrder(tt.first)
			trs := trades(b.PlaceOrder(tt.next))
			if len(trs) != 1 {
				t.Fatalf("expected 1 trade, got %d", len(trs))
			}
			if !trs[0].Price.Equal(px(tt.want)) {
				t.Errorf("expected price %s, got %s", tt.want, trs[0].Price)
			}
		})
	}
}

func TestNoCrossNoTrade(t *testing.T) {
	b := NewBook("X", "X Corp", px("30.00"))
	b.PlaceOrder(limit(1, "s", "X", SideSell, 5, "31.00"))
	events := b.PlaceOrder(limit(2, "b", "X", SideBuy, 5, "30.99"))
	if len(trades(events)) != 0 {
		t.Errorf("expected no trade when ask > bid")
	}
}

func TestSweepMultipleLevels(t *testing.T) {
	b := NewBook("X", "X Corp", px("10.00"))
	b.PlaceOrder(limit(1, "s1", "X", SideSell, 10, "10.00"))
	b.PlaceOrder(limit(2, "s2", "X", SideSell, 10, "10.50"))
	b.PlaceOrder(limit(3, "s3", "X", SideSell, 10, "11.00"))

	events := b.PlaceOrder(limit(4, "b", "X", SideBuy, 25, "10.75"))
	trs := trades(events)
	if len(trs) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trs))
	}
	if trs[0].SellOrderID != 1 || trs[1].SellOrderID != 2 {
		t.Errorf("expected fills against 1 then 2, got %d, %d", trs[0].SellOrderID, trs[1].SellOrderID)
	}
	bid, ok := b.BestBid()
	if !ok || bid.Shares != 5 {
		t.Errorf("expected 5 shares of bid remaining, got %v", bid)
	}
	st := b.Stats()
	if !st.High.Equal(px("10.50")) || !st.Last.Equal(px("10.50")) || st.Volume != 20 {
		t.Errorf("unexpected stats %s", st)
	}
}

func TestLastOverwrittenByWorsePrice(t *testing.T) {
	b := NewBook("X", "X Corp", px("10.00"))
	b.PlaceOrder(limit(1, "s", "X", SideSell, 1, "12.00"))
	b.PlaceOrder(limit(2, "b", "X", SideBuy, 1, "12.00"))
	b.PlaceOrder(limit(3, "s", "X", SideSell, 1, "9.00"))
	b.PlaceOrder(limit(4, "b", "X", SideBuy, 1, "9.00"))

	st := b.Stats()
	if !st.Last.Equal(px("9")) || !st.Low.Equal(px("9")) || !st.High.Equal(px("12")) {
		t.Errorf("unexpected stats %s", st)
	}
}

func TestZeroShareOrderNotQueued(t *testing.T) {
	b := NewBook("X", "X Corp", px("10.00"))
	events := b.PlaceOrder(limit(1, "b", "X", SideBuy, 0, "10.00"))
	if len(events) != 1 {
		t.Fatalf("expected only the accept event, got %d", len(events))
	}
	if ev := events[0].(OrderAcceptedEvent); ev.Rested {
		t.Errorf("expected zero-share order not to rest")
	}
	if len(b.Bids()) != 0 {
		t.Errorf("expected empty bids")
	}
}

func TestQuote(t *testing.T) {
	b := NewBook("GGGL", "Giggle.com", px("15.00"))
	want := "Giggle.com (GGGL)\nPrice: 15.00\thi: 15.00\tlo: 15.00\tvol: 0\nAsk: none\tBid: none"
	if got := b.Quote(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	b.PlaceOrder(limit(1, "s", "GGGL", SideSell, 100, "16.5"))
	b.PlaceOrder(limit(3, "b", "GGGL", SideBuy, 20, "14"))
	want = "Giggle.com (GGGL)\nPrice: 15.00\thi: 15.00\tlo: 15.00\tvol: 0\nAsk: 16.50 size: 100\tBid: 14.00 size: 20"
	first := b.Quote()
	if first != want {
		t.Errorf("expected %q, got %q", want, first)
	}
	if second := b.Quote(); second != first {
		t.Errorf("expected identical quotes, got %q then %q", first, second)
	}
}

func TestPreconditionPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"nil order", func() { NewBook("X", "X", px("1")).PlaceOrder(nil) }},
		{"wrong symbol", func() { NewBook("X", "X", px("1")).PlaceOrder(limit(1, "a", "Y", SideBuy, 1, "1")) }},
		{"negative shares", func() { NewBook("X", "X", px("1")).PlaceOrder(limit(1, "a", "X", SideBuy, -1, "1")) }},
		{"oversubtract", func() { limit(1, "a", "X", SideBuy, 1, "1").SubtractShares(2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"0":          "0.00",
		"10":         "10.00",
		"3.1":        "3.10",
		"1234567.89": "1234567.89",
		"0.005":      "0.01",
	}
	for in, want := range tests {
		if got := FormatMoney(px(in)); got != want {
			t.Errorf("FormatMoney(%s): expected %s, got %s", in, want, got)
		}
	}
}
