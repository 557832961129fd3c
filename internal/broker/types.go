package broker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zappabad/safetrade/internal/orderbook/core"
)

// Welcome is the first message a participant receives after logging in.
const Welcome = "Welcome to SafeTrade!"

// Screen name and password length limits, inclusive.
const (
	MinNameLen     = 4
	MaxNameLen     = 10
	MinPasswordLen = 2
	MaxPasswordLen = 10
)

var (
	ErrInvalidName     = errors.New("invalid screen name (must be 4-10 chars)")
	ErrInvalidPassword = errors.New("invalid password (must be 2-10 chars)")
	ErrNameTaken       = errors.New("screen name is already taken")
	ErrUnknownUser     = errors.New("screen name not found")
	ErrWrongPassword   = errors.New("wrong password")
	ErrAlreadyLoggedIn = errors.New("user is already logged in")
	ErrNoSession       = errors.New("no such session")
	ErrInvalidOrder    = errors.New("invalid order")
)

// ValidName reports whether name satisfies the screen name length rule.
func ValidName(name string) bool {
	n := len([]rune(name))
	return n >= MinNameLen && n <= MaxNameLen
}

// ValidPassword reports whether password satisfies the length rule.
func ValidPassword(password string) bool {
	n := len([]rune(password))
	return n >= MinPasswordLen && n <= MaxPasswordLen
}

// NameKey folds a screen name for case-blind comparison.
func NameKey(name string) string { return strings.ToLower(name) }

// Session is an authenticated participant.
type Session struct {
	Token     string
	Name      core.UserID
	LoginTime int64
}

// OrderRequest is a participant's order before the venue assigns it an ID.
type OrderRequest struct {
	Symbol string
	Side   core.Side
	Kind   core.OrderKind
	Shares core.Size
	Price  decimal.Decimal // ignored for market orders
}

// Validate checks the request for structural errors.
func (r OrderRequest) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	}
	if r.Side != core.SideBuy && r.Side != core.SideSell {
		return fmt.Errorf("%w: unknown side", ErrInvalidOrder)
	}
	if r.Kind != core.OrderKindLimit && r.Kind != core.OrderKindMarket {
		return fmt.Errorf("%w: unknown order kind", ErrInvalidOrder)
	}
	if r.Shares <= 0 {
		return fmt.Errorf("%w: shares must be positive", ErrInvalidOrder)
	}
	if r.Kind == core.OrderKindLimit && !r.Price.IsPositive() {
		return fmt.Errorf("%w: limit price must be positive", ErrInvalidOrder)
	}
	return nil
}

// ActivityType indicates what a participant did at the brokerage.
type ActivityType int

const (
	ActivityRegistered ActivityType = iota
	ActivityLoggedIn
	ActivityLoggedOut
	ActivityOrder
	ActivityQuote
)

func (t ActivityType) String() string {
	switch t {
	case ActivityRegistered:
		return "registered"
	case ActivityLoggedIn:
		return "login"
	case ActivityLoggedOut:
		return "logout"
	case ActivityOrder:
		return "order"
	case ActivityQuote:
		return "quote"
	default:
		return "unknown"
	}
}

// Activity is one entry in the brokerage's recent activity log.
type Activity struct {
	Name    core.UserID
	Type    ActivityType
	Time    int64
	OrderID core.OrderID // for ActivityOrder
	Symbol  string
}
