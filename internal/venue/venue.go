package venue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zappabad/safetrade/internal/broker"
	brokerservice "github.com/zappabad/safetrade/internal/broker/service"
	"github.com/zappabad/safetrade/internal/broker/store"
	marketservice "github.com/zappabad/safetrade/internal/market/service"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/internal/trader"
	"github.com/zappabad/safetrade/internal/trader/runner"
	"github.com/zappabad/safetrade/internal/trader/strategy"
)

// Venue owns all the trading subsystems and manages their lifecycle.
type Venue struct {
	Accounts  store.Store
	Traders   *trader.Registry
	Market    *marketservice.Directory
	Brokerage *brokerservice.Brokerage
	Bots      []*runner.Runner

	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a Venue with the given configuration, lists its
// instruments and starts any bots.
func New(cfg Config, logger *zap.Logger) (*Venue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Venue{cfg: cfg, log: logger}

	if cfg.DataDir != "" {
		ps, err := store.NewPebbleStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		v.Accounts = ps
	} else {
		v.Accounts = store.NewMemoryStore()
	}

	v.Traders = trader.NewRegistry(cfg.MailboxSize, logger)
	v.Market = marketservice.NewDirectory(v.Traders, cfg.MarketConfig, logger)
	for _, l := range cfg.Listings {
		v.Market.List(l.Symbol, l.Company, l.OpeningPrice)
	}

	v.Brokerage = brokerservice.NewBrokerage(cfg.BrokerConfig, v.Accounts, v.Traders, v.Market, logger)

	for i := 0; i < cfg.Bots; i++ {
		r, err := v.startBot(i + 1)
		if err != nil {
			v.Close()
			return nil, err
		}
		v.Bots = append(v.Bots, r)
	}

	logger.Info("venue started",
		zap.Int("listings", len(cfg.Listings)),
		zap.Int("bots", len(v.Bots)),
		zap.Bool("persistent_accounts", cfg.DataDir != ""))
	return v, nil
}

func (v *Venue) startBot(n int) (*runner.Runner, error) {
	// Bot accounts are throwaway: a fresh name and password every run.
	var name, password string
	for attempt := 0; ; attempt++ {
		name = "bot" + uuid.NewString()[:6]
		password = uuid.NewString()[:8]
		err := v.Brokerage.AddUser(name, password)
		if err == nil {
			break
		}
		if !errors.Is(err, broker.ErrNameTaken) || attempt == 3 {
			return nil, fmt.Errorf("register bot %d: %w", n, err)
		}
	}
	s, err := v.Brokerage.Login(name, password)
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", name, err)
	}

	strat := strategy.NewRandomStrategy(core.UserID(name), v.cfg.BotStrategy, time.Now().UnixNano()+int64(n))
	return runner.NewRunner(v.cfg.BotConfig, s.Name, s.Token, strat, v.Market, v.Brokerage, v.log), nil
}

// Close shuts down all subsystems in reverse dependency order.
func (v *Venue) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true

	// Stop bots first; their mailboxes have no reader left.
	for _, b := range v.Bots {
		b.Close()
		if v.Traders != nil {
			v.Traders.Remove(b.Name())
		}
	}

	if v.Market != nil {
		v.Market.Close()
	}

	if v.Accounts != nil {
		if err := v.Accounts.Close(); err != nil {
			v.log.Warn("closing account store", zap.Error(err))
		}
	}
	v.log.Info("venue stopped")
}
