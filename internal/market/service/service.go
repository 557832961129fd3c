package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zappabad/safetrade/internal/market"
	marketview "github.com/zappabad/safetrade/internal/market/view"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	orderbookservice "github.com/zappabad/safetrade/internal/orderbook/service"
	orderbookview "github.com/zappabad/safetrade/internal/orderbook/view"
)

// NotFound is the text returned or delivered for an unlisted symbol.
func NotFound(symbol string) string { return symbol + " not found" }

type entry struct {
	listing market.Listing
	book    *orderbookservice.Service
}

// Directory maps symbols to their books. Every book is its own unit of
// mutual exclusion, so orders on different symbols never wait on each
// other.
type Directory struct {
	cfg      Config
	notifier core.Notifier
	log      *zap.Logger

	mu      sync.RWMutex
	entries map[string]entry

	mview          *marketview.MarketView
	externalEvents chan marketview.MarketEvent
	droppedEvents  atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewDirectory creates an empty directory. Notices from every book and
// not-found replies go to notifier.
func NewDirectory(notifier core.Notifier, cfg Config, logger *zap.Logger) *Directory {
	if cfg.MarketEventBuffer <= 0 {
		cfg.MarketEventBuffer = DefaultConfig().MarketEventBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = core.NotifierFunc(func(core.UserID, string) {})
	}
	return &Directory{
		cfg:            cfg,
		notifier:       notifier,
		log:            logger.Named("directory"),
		entries:        make(map[string]entry),
		mview:          marketview.NewMarketView(),
		externalEvents: make(chan marketview.MarketEvent, cfg.MarketEventBuffer),
		closed:         make(chan struct{}),
	}
}

// List creates a fresh book for symbol, replacing and closing any book
// already listed under it.
func (d *Directory) List(symbol, company string, opening decimal.Decimal) {
	book := orderbookservice.NewService(symbol, company, opening, d.notifier, d.cfg.Book, d.log)

	d.mu.Lock()
	select {
	case <-d.closed:
		d.mu.Unlock()
		book.Close()
		d.log.Warn("listing after close ignored", zap.String("symbol", symbol))
		return
	default:
	}
	old, relisted := d.entries[symbol]
	d.entries[symbol] = entry{
		listing: market.Listing{Symbol: symbol, Company: company, OpeningPrice: opening},
		book:    book,
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.runBookEventForwarder(symbol, book)

	if relisted {
		old.book.Close()
		d.mview.Forget(symbol)
		d.log.Info("symbol re-listed", zap.String("symbol", symbol), zap.String("company", company))
		return
	}
	d.log.Info("symbol listed", zap.String("symbol", symbol), zap.String("company", company),
		zap.String("opening", opening.StringFixed(2)))
}

func (d *Directory) runBookEventForwarder(symbol string, book *orderbookservice.Service) {
	defer d.wg.Done()

	events := book.Events()
	for {
		select {
		case <-d.closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			me := marketview.MarketEvent{Symbol: symbol, Event: ev}
			if cur, ok := d.Book(symbol); ok && cur == book {
				d.mview.Apply(me)
			}

			if d.cfg.BlockOnSlowConsumer {
				select {
				case d.externalEvents <- me:
				case <-d.closed:
					return
				}
				continue
			}
			select {
			case d.externalEvents <- me:
			default:
				d.droppedEvents.Add(1)
			}
		}
	}
}

// Book returns the service for a listed symbol.
func (d *Directory) Book(symbol string) (*orderbookservice.Service, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[symbol]
	return e.book, ok
}

// Quote returns the quote for symbol, or "<symbol> not found".
func (d *Directory) Quote(ctx context.Context, symbol string) (string, error) {
	for {
		book, ok := d.Book(symbol)
		if !ok {
			return NotFound(symbol), nil
		}
		q, err := book.Quote(ctx)
		if d.replaced(symbol, book, err) {
			continue
		}
		return q, err
	}
}

// Route sends the order to its book. An unlisted symbol is reported to the
// order's owner and is not an error.
func (d *Directory) Route(ctx context.Context, o *core.Order) error {
	for {
		book, ok := d.Book(o.Symbol)
		if !ok {
			d.notifier.Deliver(o.Owner, NotFound(o.Symbol))
			return nil
		}
		err := book.PlaceOrder(ctx, o)
		if d.replaced(o.Symbol, book, err) {
			continue
		}
		return err
	}
}

// replaced reports whether err came from a book that was closed because
// the symbol was re-listed in the meantime.
func (d *Directory) replaced(symbol string, book *orderbookservice.Service, err error) bool {
	if !errors.Is(err, orderbookservice.ErrClosed) {
		return false
	}
	select {
	case <-d.closed:
		return false
	default:
	}
	cur, ok := d.Book(symbol)
	return ok && cur != book
}

// Listings returns all listed instruments sorted by symbol.
func (d *Directory) Listings() []market.Listing {
	d.mu.RLock()
	out := make([]market.Listing, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.listing)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Listing returns the listing record for symbol.
func (d *Directory) Listing(symbol string) (market.Listing, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[symbol]
	return e.listing, ok
}

// TradesLast returns the last n trades for a symbol.
func (d *Directory) TradesLast(symbol string, n int) ([]core.TradeEvent, bool) {
	book, ok := d.Book(symbol)
	if !ok {
		return nil, false
	}
	return book.TradesLast(n), true
}

// Candles returns the last n tape candles for a symbol.
func (d *Directory) Candles(symbol string, n int) ([]orderbookview.Candle, bool) {
	book, ok := d.Book(symbol)
	if !ok {
		return nil, false
	}
	return book.Candles(n), true
}

// Snapshot returns the current market summary across all symbols.
func (d *Directory) Snapshot() marketview.MarketSnapshot {
	return d.mview.Snapshot()
}

// Events returns the consolidated market events channel.
func (d *Directory) Events() <-chan marketview.MarketEvent {
	return d.externalEvents
}

// DroppedEvents returns the count of dropped market events.
func (d *Directory) DroppedEvents() int64 {
	return d.droppedEvents.Load()
}

// DroppedBookEvents returns the events listed books dropped before the
// directory could forward them.
func (d *Directory) DroppedBookEvents() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var n int64
	for _, e := range d.entries {
		n += e.book.DroppedExternalEvents()
	}
	return n
}

// Close shuts down the directory and every book.
func (d *Directory) Close() {
	first := false
	d.closeOnce.Do(func() {
		d.mu.Lock()
		close(d.closed)
		d.mu.Unlock()
		first = true
	})
	if !first {
		return
	}

	d.mu.RLock()
	books := make([]*orderbookservice.Service, 0, len(d.entries))
	for _, e := range d.entries {
		books = append(books, e.book)
	}
	d.mu.RUnlock()

	for _, b := range books {
		b.Close()
	}

	d.wg.Wait()
	close(d.externalEvents)
	d.log.Info("directory closed", zap.Int("books", len(books)))
}
