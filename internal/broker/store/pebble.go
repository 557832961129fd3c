package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

// PebbleStore persists accounts in a Pebble database.
type PebbleStore struct {
	db *pebble.DB
	// serializes check-then-set in Create
	mu sync.Mutex
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// keys: acct:<folded name>
var accountPrefix = []byte("acct:")

func accountKey(name string) []byte {
	return append(append([]byte(nil), accountPrefix...), key(name)...)
}

// keyUpperBound returns the smallest key greater than every key with the given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (s *PebbleStore) Create(acct Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := accountKey(acct.Name)
	_, closer, err := s.db.Get(k)
	if err == nil {
		closer.Close()
		return ErrExists
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("failed to get account: %w", err)
	}

	if err := s.db.Set(k, data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (s *PebbleStore) Get(name string) (Account, error) {
	data, closer, err := s.db.Get(accountKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	defer closer.Close()

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return Account{}, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return acct, nil
}

func (s *PebbleStore) List() ([]Account, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: accountPrefix,
		UpperBound: keyUpperBound(accountPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	defer iter.Close()

	var out []Account
	for iter.First(); iter.Valid(); iter.Next() {
		var acct Account
		if err := json.Unmarshal(iter.Value(), &acct); err != nil {
			return nil, fmt.Errorf("failed to unmarshal account: %w", err)
		}
		out = append(out, acct)
	}
	return out, iter.Error()
}

var _ Store = (*PebbleStore)(nil)
