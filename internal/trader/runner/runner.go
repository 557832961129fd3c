package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/zappabad/safetrade/internal/broker"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/internal/trader"
	"github.com/zappabad/safetrade/internal/trader/strategy"
)

// Runner executes a trading strategy on a timer, submitting its orders
// through a brokerage session.
type Runner struct {
	cfg      Config
	name     core.UserID
	token    string
	strategy strategy.Strategy
	mr       strategy.MarketReader
	sender   strategy.OrderSender
	log      *zap.Logger

	events        chan trader.TraderEvent
	droppedEvents atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRunner creates a new Runner and starts ticking.
func NewRunner(
	cfg Config,
	name core.UserID,
	token string,
	strat strategy.Strategy,
	mr strategy.MarketReader,
	sender strategy.OrderSender,
	logger *zap.Logger,
) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	if cfg.OrderTimeout <= 0 {
		cfg.OrderTimeout = cfg.TickInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		cfg:      cfg,
		name:     name,
		token:    token,
		strategy: strat,
		mr:       mr,
		sender:   sender,
		log:      logger.Named("runner").With(zap.String("trader", string(name))),
		events:   make(chan trader.TraderEvent, cfg.EventBuffer),
		closed:   make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

func (r *Runner) run() {
	defer r.wg.Done()
	defer close(r.events)

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.closed:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.OrderTimeout)
	defer cancel()

	now := time.Now().UnixNano()

	intents, events := r.strategy.Step(ctx, now, r.mr)

	for _, intent := range intents {
		r.executeIntent(ctx, intent)
	}

	for _, ev := range events {
		r.emitEvent(ev)
	}
}

func (r *Runner) executeIntent(ctx context.Context, intent trader.OrderIntent) {
	id, err := r.sender.PlaceOrder(ctx, r.token, broker.OrderRequest{
		Symbol: intent.Symbol,
		Side:   intent.Side,
		Kind:   intent.Kind,
		Shares: intent.Shares,
		Price:  intent.Price,
	})
	if err != nil {
		r.log.Warn("order rejected", zap.String("symbol", intent.Symbol), zap.Error(err))
		r.emitEvent(trader.TraderEvent{
			Trader:  r.name,
			Time:    time.Now().UnixNano(),
			Type:    trader.TraderEventError,
			Intent:  &intent,
			Message: err.Error(),
		})
		return
	}

	r.emitEvent(trader.TraderEvent{
		Trader:  r.name,
		Time:    time.Now().UnixNano(),
		Type:    trader.TraderEventPlacedOrder,
		Intent:  &intent,
		OrderID: id,
	})
}

func (r *Runner) emitEvent(ev trader.TraderEvent) {
	if r.cfg.BlockOnSlowConsumer {
		select {
		case r.events <- ev:
		case <-r.closed:
		}
		return
	}
	select {
	case r.events <- ev:
	default:
		r.droppedEvents.Add(1)
	}
}

// Name returns the participant this runner trades for.
func (r *Runner) Name() core.UserID { return r.name }

// Events returns the trader events channel.
func (r *Runner) Events() <-chan trader.TraderEvent {
	return r.events
}

// DroppedEvents returns the count of dropped events.
func (r *Runner) DroppedEvents() int64 {
	return r.droppedEvents.Load()
}

// Close shuts down the runner.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
	r.wg.Wait()
}
