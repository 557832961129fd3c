package trader

import (
	"sync"
	"sync/atomic"
)

// DefaultMailboxSize is the number of undelivered messages kept per trader.
const DefaultMailboxSize = 256

// Mailbox is a bounded queue of notification texts. Deliver never blocks:
// when the mailbox is full the oldest message is discarded.
type Mailbox struct {
	mu       sync.Mutex
	msgs     []string
	capacity int
	subs     map[int]chan string
	nextSub  int

	dropped atomic.Int64
}

// NewMailbox creates a mailbox holding at most capacity messages.
func NewMailbox(capacity int) *Mailbox {
	if capacity <= 0 {
		capacity = DefaultMailboxSize
	}
	return &Mailbox{
		capacity: capacity,
		subs:     make(map[int]chan string),
	}
}

// Deliver appends msg and fans it out to live subscribers.
func (m *Mailbox) Deliver(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.msgs) == m.capacity {
		m.msgs = m.msgs[1:]
		m.dropped.Add(1)
	}
	m.msgs = append(m.msgs, msg)

	for _, ch := range m.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Messages drains the mailbox, oldest first.
func (m *Mailbox) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.msgs
	m.msgs = nil
	return out
}

// Peek returns the queued messages without consuming them.
func (m *Mailbox) Peek() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.msgs...)
}

// HasMessages reports whether there is anything to read.
func (m *Mailbox) HasMessages() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs) > 0
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

// Dropped returns how many messages were discarded because the mailbox was full.
func (m *Mailbox) Dropped() int64 {
	return m.dropped.Load()
}

// Subscribe returns a channel that receives every message delivered after
// the call, best effort. The returned func unsubscribes and closes the channel.
func (m *Mailbox) Subscribe(buffer int) (<-chan string, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan string, buffer)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}
