package store

import (
	"sort"
	"sync"
)

// MemoryStore keeps accounts in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]Account)}
}

func (s *MemoryStore) Create(acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(acct.Name)
	if _, ok := s.accounts[k]; ok {
		return ErrExists
	}
	s.accounts[k] = acct
	return nil
}

func (s *MemoryStore) Get(name string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[key(name)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (s *MemoryStore) List() ([]Account, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.accounts))
	for k := range s.accounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Account, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.accounts[k])
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
