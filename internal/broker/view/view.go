package view

import (
	"sort"
	"sync"

	"github.com/zappabad/safetrade/internal/broker"
	"github.com/zappabad/safetrade/internal/orderbook/core"
)

// SessionView tracks logged-in participants and a bounded log of recent
// brokerage activity.
type SessionView struct {
	mu       sync.RWMutex
	byToken  map[string]broker.Session
	byName   map[string]string // folded name -> token
	activity []broker.Activity
	capacity int
}

// NewSessionView creates a new SessionView with the given activity capacity.
func NewSessionView(capacity int) *SessionView {
	if capacity <= 0 {
		capacity = 100
	}
	return &SessionView{
		byToken:  make(map[string]broker.Session),
		byName:   make(map[string]string),
		activity: make([]broker.Activity, 0, capacity),
		capacity: capacity,
	}
}

// Open records a session. It fails if the participant already has one.
func (v *SessionView) Open(s broker.Session) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	k := broker.NameKey(string(s.Name))
	if _, ok := v.byName[k]; ok {
		return false
	}
	v.byName[k] = s.Token
	v.byToken[s.Token] = s
	v.addActivityLocked(broker.Activity{Name: s.Name, Type: broker.ActivityLoggedIn, Time: s.LoginTime})
	return true
}

// Close removes a session and returns it.
func (v *SessionView) Close(token string, now int64) (broker.Session, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.byToken[token]
	if !ok {
		return broker.Session{}, false
	}
	delete(v.byToken, token)
	delete(v.byName, broker.NameKey(string(s.Name)))
	v.addActivityLocked(broker.Activity{Name: s.Name, Type: broker.ActivityLoggedOut, Time: now})
	return s, true
}

// Get returns the session for token.
func (v *SessionView) Get(token string) (broker.Session, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s, ok := v.byToken[token]
	return s, ok
}

// LoggedIn reports whether name has an open session, case blind.
func (v *SessionView) LoggedIn(name string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.byName[broker.NameKey(name)]
	return ok
}

// Active returns the names of logged-in participants, sorted case blind.
func (v *SessionView) Active() []core.UserID {
	v.mu.RLock()
	out := make([]core.UserID, 0, len(v.byToken))
	for _, s := range v.byToken {
		out = append(out, s.Name)
	}
	v.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return broker.NameKey(string(out[i])) < broker.NameKey(string(out[j]))
	})
	return out
}

// AddActivity appends to the activity log.
func (v *SessionView) AddActivity(a broker.Activity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.addActivityLocked(a)
}

func (v *SessionView) addActivityLocked(a broker.Activity) {
	if len(v.activity) >= v.capacity {
		// Remove oldest
		v.activity = v.activity[1:]
	}
	v.activity = append(v.activity, a)
}

// Activity returns a copy of the activity log, oldest first.
func (v *SessionView) Activity() []broker.Activity {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]broker.Activity, len(v.activity))
	copy(out, v.activity)
	return out
}
