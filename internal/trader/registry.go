package trader

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/zappabad/safetrade/internal/orderbook/core"
)

// Registry maps screen names to traders and routes notices to them. It
// implements core.Notifier; messages for unknown names are discarded.
type Registry struct {
	mailboxSize int
	log         *zap.Logger

	mu      sync.RWMutex
	traders map[core.UserID]*Trader
}

// NewRegistry creates an empty registry.
func NewRegistry(mailboxSize int, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		mailboxSize: mailboxSize,
		log:         logger.Named("registry"),
		traders:     make(map[core.UserID]*Trader),
	}
}

// Register returns the trader for name, creating it on first use.
func (r *Registry) Register(name core.UserID) *Trader {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.traders[name]; ok {
		return t
	}
	t := NewTrader(name, r.mailboxSize)
	r.traders[name] = t
	return t
}

// Get returns the trader for name.
func (r *Registry) Get(name core.UserID) (*Trader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.traders[name]
	return t, ok
}

// Remove forgets a trader. Later notices for it are discarded.
func (r *Registry) Remove(name core.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.traders, name)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []core.UserID {
	r.mu.RLock()
	out := make([]core.UserID, 0, len(r.traders))
	for name := range r.traders {
		out = append(out, name)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Deliver implements core.Notifier.
func (r *Registry) Deliver(to core.UserID, msg string) {
	t, ok := r.Get(to)
	if !ok {
		r.log.Debug("notice for unknown trader dropped", zap.String("trader", string(to)))
		return
	}
	t.Deliver(msg)
}
