package api

import (
	"github.com/shopspring/decimal"
)

// API request and response types for REST endpoints and WebSocket messages

// ==============================
// REST Request Types
// ==============================

// CredentialsRequest registers or logs in a participant.
type CredentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	Symbol string          `json:"symbol"`
	Side   string          `json:"side"` // "buy" or "sell"
	Type   string          `json:"type"` // "limit" or "market"
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"` // limit orders only
}

// ==============================
// REST Response Types
// ==============================

// SessionInfo describes a session.
type SessionInfo struct {
	Token     string `json:"token"`
	Name      string `json:"name"`
	LoginTime int64  `json:"loginTime,omitempty"`
}

// ActivityInfo is one entry of the venue activity log.
type ActivityInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Time    int64  `json:"time"`
	OrderID int64  `json:"orderId,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
}

// MarketInfo summarizes a listed instrument.
type MarketInfo struct {
	Symbol       string `json:"symbol"`
	Company      string `json:"company"`
	OpeningPrice string `json:"openingPrice"`
	Last         string `json:"last"`
	High         string `json:"high"`
	Low          string `json:"low"`
	Volume       int64  `json:"volume"`
}

// QuoteInfo carries the quote text for a symbol.
type QuoteInfo struct {
	Symbol string `json:"symbol"`
	Quote  string `json:"quote"`
}

// TradeInfo represents a recent trade
type TradeInfo struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Size      int64  `json:"size"`
	Buyer     string `json:"buyer"`
	Seller    string `json:"seller"`
	Timestamp int64  `json:"timestamp"` // Unix nanoseconds
}

// CandleInfo is one period of a market's trade prices.
type CandleInfo struct {
	Start  int64  `json:"start"` // Unix nanoseconds
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume int64  `json:"volume"`
	Trades int    `json:"trades"`
}

// OrderAck is returned when an order has been routed.
type OrderAck struct {
	OrderID int64 `json:"orderId"`
}

// MessagesResponse carries drained mailbox notices.
type MessagesResponse struct {
	Messages []string `json:"messages"`
}

// HealthResponse reports venue liveness.
type HealthResponse struct {
	Status              string `json:"status"`
	Listings            int    `json:"listings"`
	ActiveTraders       int    `json:"activeTraders"`
	Participants        int    `json:"participants"`
	DroppedMarketEvents int64  `json:"droppedMarketEvents"`
	DroppedBookEvents   int64  `json:"droppedBookEvents"`
	WSClients           int    `json:"wsClients"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ==============================
// WebSocket Types
// ==============================

// WSSubscribeRequest subscribes to or unsubscribes from channels.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// WSMessage is pushed to clients. Channel is "mailbox" or "trades:<SYM>".
type WSMessage struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}
