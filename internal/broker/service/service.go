package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zappabad/safetrade/internal/broker"
	"github.com/zappabad/safetrade/internal/broker/store"
	brokerview "github.com/zappabad/safetrade/internal/broker/view"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/internal/trader"
)

// Router is the venue side of the brokerage: it quotes symbols and routes
// orders to their books.
type Router interface {
	Quote(ctx context.Context, symbol string) (string, error)
	Route(ctx context.Context, o *core.Order) error
}

// Brokerage registers participants, authenticates them and relays their
// orders and quote requests to the venue.
type Brokerage struct {
	cfg      Config
	accounts store.Store
	traders  *trader.Registry
	router   Router
	view     *brokerview.SessionView
	log      *zap.Logger

	nextOrderID atomic.Int64
}

// NewBrokerage creates a new Brokerage.
func NewBrokerage(cfg Config, accounts store.Store, traders *trader.Registry, router Router, logger *zap.Logger) *Brokerage {
	if cfg.ActivityCapacity <= 0 {
		cfg.ActivityCapacity = DefaultConfig().ActivityCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Brokerage{
		cfg:      cfg,
		accounts: accounts,
		traders:  traders,
		router:   router,
		view:     brokerview.NewSessionView(cfg.ActivityCapacity),
		log:      logger.Named("brokerage"),
	}
}

// AddUser registers a new participant.
func (b *Brokerage) AddUser(name, password string) error {
	if !broker.ValidName(name) {
		return broker.ErrInvalidName
	}
	if !broker.ValidPassword(password) {
		return broker.ErrInvalidPassword
	}

	acct, err := store.NewAccount(name, password, b.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := b.accounts.Create(acct); err != nil {
		if errors.Is(err, store.ErrExists) {
			return broker.ErrNameTaken
		}
		return fmt.Errorf("create account: %w", err)
	}

	b.traders.Register(core.UserID(name))
	b.view.AddActivity(broker.Activity{Name: core.UserID(name), Type: broker.ActivityRegistered, Time: acct.Created})
	b.log.Info("user registered", zap.String("name", name))
	return nil
}

// Login opens a session for a registered participant and greets them.
func (b *Brokerage) Login(name, password string) (broker.Session, error) {
	acct, err := b.accounts.Get(name)
	if errors.Is(err, store.ErrNotFound) {
		return broker.Session{}, broker.ErrUnknownUser
	}
	if err != nil {
		return broker.Session{}, fmt.Errorf("load account: %w", err)
	}
	if b.view.LoggedIn(acct.Name) {
		return broker.Session{}, broker.ErrAlreadyLoggedIn
	}
	if !acct.CheckPassword(password) {
		return broker.Session{}, broker.ErrWrongPassword
	}

	s := broker.Session{
		Token:     uuid.NewString(),
		Name:      core.UserID(acct.Name),
		LoginTime: time.Now().UnixNano(),
	}
	if !b.view.Open(s) {
		return broker.Session{}, broker.ErrAlreadyLoggedIn
	}

	b.traders.Register(s.Name).Deliver(broker.Welcome)
	b.log.Info("user logged in", zap.String("name", acct.Name))
	return s, nil
}

// Logout closes a session. The participant's mailbox keeps collecting
// notices while they are away.
func (b *Brokerage) Logout(token string) error {
	s, ok := b.view.Close(token, time.Now().UnixNano())
	if !ok {
		return broker.ErrNoSession
	}
	b.log.Info("user logged out", zap.String("name", string(s.Name)))
	return nil
}

// Session returns the session for token.
func (b *Brokerage) Session(token string) (broker.Session, error) {
	s, ok := b.view.Get(token)
	if !ok {
		return broker.Session{}, broker.ErrNoSession
	}
	return s, nil
}

// ActiveTraders returns the names of logged-in participants.
func (b *Brokerage) ActiveTraders() []core.UserID {
	return b.view.Active()
}

// Activity returns the recent activity log.
func (b *Brokerage) Activity() []broker.Activity {
	return b.view.Activity()
}

func (b *Brokerage) trader(token string) (broker.Session, *trader.Trader, error) {
	s, ok := b.view.Get(token)
	if !ok {
		return broker.Session{}, nil, broker.ErrNoSession
	}
	return s, b.traders.Register(s.Name), nil
}

// PlaceOrder validates the request, assigns it an ID and time, and routes
// it to its book. An unlisted symbol is reported in the mailbox, not as an
// error.
func (b *Brokerage) PlaceOrder(ctx context.Context, token string, req broker.OrderRequest) (core.OrderID, error) {
	s, ok := b.view.Get(token)
	if !ok {
		return 0, broker.ErrNoSession
	}
	if err := req.Validate(); err != nil {
		return 0, err
	}

	now := time.Now().UnixNano()
	id := core.OrderID(b.nextOrderID.Add(1))
	o := &core.Order{
		ID:     id,
		Owner:  s.Name,
		Symbol: req.Symbol,
		Side:   req.Side,
		Kind:   req.Kind,
		Shares: req.Shares,
		Time:   now,
	}
	if req.Kind == core.OrderKindLimit {
		o.Price = req.Price
	}

	if err := b.router.Route(ctx, o); err != nil {
		return 0, fmt.Errorf("route order: %w", err)
	}

	b.view.AddActivity(broker.Activity{Name: s.Name, Type: broker.ActivityOrder, Time: now, OrderID: id, Symbol: req.Symbol})
	b.log.Debug("order routed",
		zap.Int64("order_id", int64(id)),
		zap.String("trader", string(s.Name)),
		zap.String("symbol", req.Symbol),
		zap.Stringer("side", req.Side),
		zap.Stringer("kind", req.Kind),
		zap.Int64("shares", int64(req.Shares)))
	return id, nil
}

// Quote fetches a quote for symbol and passes it to the participant's
// mailbox as well as returning it.
func (b *Brokerage) Quote(ctx context.Context, token, symbol string) (string, error) {
	s, t, err := b.trader(token)
	if err != nil {
		return "", err
	}
	q, err := b.router.Quote(ctx, symbol)
	if err != nil {
		return "", fmt.Errorf("quote %s: %w", symbol, err)
	}
	t.Deliver(q)
	b.view.AddActivity(broker.Activity{Name: s.Name, Type: broker.ActivityQuote, Time: time.Now().UnixNano(), Symbol: symbol})
	return q, nil
}

// Messages drains the participant's mailbox.
func (b *Brokerage) Messages(token string) ([]string, error) {
	_, t, err := b.trader(token)
	if err != nil {
		return nil, err
	}
	return t.Messages(), nil
}

// Peek returns the participant's unread notices without consuming them.
func (b *Brokerage) Peek(token string) ([]string, error) {
	_, t, err := b.trader(token)
	if err != nil {
		return nil, err
	}
	return t.Mailbox().Peek(), nil
}

// Participants returns every name holding a mailbox, logged in or not.
func (b *Brokerage) Participants() []core.UserID {
	return b.traders.Names()
}

// HasMessages reports whether the participant has unread notices.
func (b *Brokerage) HasMessages(token string) (bool, error) {
	_, t, err := b.trader(token)
	if err != nil {
		return false, err
	}
	return t.HasMessages(), nil
}

// Subscribe streams notices delivered to the participant from now on.
func (b *Brokerage) Subscribe(token string, buffer int) (<-chan string, func(), error) {
	_, t, err := b.trader(token)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := t.Mailbox().Subscribe(buffer)
	return ch, cancel, nil
}
