package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/internal/orderbook/view"
)

var ErrClosed = errors.New("orderbook service closed")

// command types
type cmdType int

const (
	cmdPlace cmdType = iota
	cmdQuote
	cmdSnapshot
)

type command struct {
	typ    cmdType
	order  *core.Order
	respCh chan<- response
}

type response struct {
	quote    string
	snapshot view.BookSnapshot
}

// Service owns one book. A single goroutine applies every command, so
// orders on the same symbol are serialized and each placement runs its
// matching loop to completion before the next command is read.
type Service struct {
	cfg      Config
	book     *core.Book
	view     *view.BookView
	notifier core.Notifier
	log      *zap.Logger

	cmdCh          chan command
	internalEvents chan core.Event
	externalEvents chan core.Event

	droppedExternal atomic.Int64

	closed    chan struct{}
	stopped   chan struct{} // closed when the command processor exits
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewService lists a new book and starts its goroutines. Notices produced
// by the book are handed to notifier.
func NewService(symbol, company string, opening decimal.Decimal, notifier core.Notifier, cfg Config, logger *zap.Logger) *Service {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = core.NotifierFunc(func(core.UserID, string) {})
	}

	book := core.NewBook(symbol, company, opening)
	s := &Service{
		cfg:            cfg,
		book:           book,
		view:           view.NewBookView(book.Stats(), view.NewTape(cfg.TradeTapeSize, cfg.CandlePeriod, cfg.CandleCount)),
		notifier:       notifier,
		log:            logger.Named("book").With(zap.String("symbol", symbol)),
		cmdCh:          make(chan command, cfg.CommandBuffer),
		internalEvents: make(chan core.Event, cfg.EventBuffer),
		externalEvents: make(chan core.Event, cfg.ExternalEventBuffer),
		closed:         make(chan struct{}),
		stopped:        make(chan struct{}),
	}

	s.wg.Add(1)
	go s.runCommandProcessor()

	s.wg.Add(1)
	go s.runEventDispatcher()

	return s
}

func (s *Service) runCommandProcessor() {
	defer s.wg.Done()
	defer close(s.stopped)

	for {
		select {
		case <-s.closed:
			return
		case cmd := <-s.cmdCh:
			s.processCommand(cmd)
		}
	}
}

func (s *Service) processCommand(cmd command) {
	var resp response

	switch cmd.typ {
	case cmdPlace:
		events := s.book.PlaceOrder(cmd.order)
		for _, ev := range events {
			for _, n := range core.Notices(ev) {
				s.notifier.Deliver(n.To, n.Text)
			}
			s.emitEvent(ev)
		}
	case cmdQuote:
		resp.quote = s.book.Quote()
	case cmdSnapshot:
		resp.snapshot = view.NewBookSnapshot(s.book)
	}

	if cmd.respCh != nil {
		cmd.respCh <- resp
	}
}

func (s *Service) emitEvent(ev core.Event) {
	select {
	case s.internalEvents <- ev:
	case <-s.closed:
	}
}

func (s *Service) runEventDispatcher() {
	defer s.wg.Done()
	defer close(s.externalEvents)

	for {
		select {
		case <-s.closed:
			return
		case ev := <-s.internalEvents:
			s.view.Apply(ev)

			if s.cfg.BlockOnSlowConsumer {
				select {
				case s.externalEvents <- ev:
				case <-s.closed:
					return
				}
				continue
			}
			select {
			case s.externalEvents <- ev:
			default:
				s.droppedExternal.Add(1)
				s.log.Debug("external event dropped")
			}
		}
	}
}

func (s *Service) do(ctx context.Context, cmd command) (response, error) {
	respCh := make(chan response, 1)
	cmd.respCh = respCh

	select {
	case <-s.closed:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	case s.cmdCh <- cmd:
	}

	// A queued command is either answered before the processor exits or
	// never run, so once it has stopped respCh tells which.
	select {
	case resp := <-respCh:
		return resp, nil
	case <-s.stopped:
		select {
		case resp := <-respCh:
			return resp, nil
		default:
			return response{}, ErrClosed
		}
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

// PlaceOrder hands the order to the book. When it returns nil the order
// has been matched as far as possible and all resulting notices have been
// delivered. If ctx ends after the order was queued, the order is still
// placed.
func (s *Service) PlaceOrder(ctx context.Context, o *core.Order) error {
	_, err := s.do(ctx, command{typ: cmdPlace, order: o})
	return err
}

// Quote returns the book's quote text.
func (s *Service) Quote(ctx context.Context) (string, error) {
	resp, err := s.do(ctx, command{typ: cmdQuote})
	return resp.quote, err
}

// Snapshot returns a consistent copy of the book.
func (s *Service) Snapshot(ctx context.Context) (view.BookSnapshot, error) {
	resp, err := s.do(ctx, command{typ: cmdSnapshot})
	return resp.snapshot, err
}

// Symbol returns the listed symbol.
func (s *Service) Symbol() string { return s.book.Symbol() }

// Company returns the listed company name.
func (s *Service) Company() string { return s.book.Company() }

// Stats returns the statistics from the view (eventually consistent).
func (s *Service) Stats() core.Stats { return s.view.Stats() }

// TradesLast returns the last n trades (from view).
func (s *Service) TradesLast(n int) []core.TradeEvent {
	return s.view.TradesLast(n)
}

// Candles returns the last n tape candles (from view).
func (s *Service) Candles(n int) []view.Candle {
	return s.view.Candles(n)
}

// Events returns the external events channel for subscribers.
func (s *Service) Events() <-chan core.Event {
	return s.externalEvents
}

// DroppedExternalEvents returns the count of dropped external events.
func (s *Service) DroppedExternalEvents() int64 {
	return s.droppedExternal.Load()
}

// Close shuts down the service and waits for goroutines to finish.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}
