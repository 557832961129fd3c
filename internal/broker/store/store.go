package store

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zappabad/safetrade/internal/broker"
)

var (
	ErrNotFound = errors.New("account not found")
	ErrExists   = errors.New("account already exists")
)

// Account is a registered participant.
type Account struct {
	Name         string `json:"name"`
	PasswordHash []byte `json:"password_hash"`
	Created      int64  `json:"created"`
}

// NewAccount hashes password and returns the account record. cost <= 0
// uses bcrypt.DefaultCost.
func NewAccount(name, password string, cost int) (Account, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}
	return Account{Name: name, PasswordHash: hash, Created: time.Now().UnixNano()}, nil
}

// CheckPassword reports whether password matches the stored hash.
func (a Account) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) == nil
}

// Store persists accounts keyed by case-folded screen name.
type Store interface {
	// Create adds a new account, failing with ErrExists if the name is taken
	// in any letter case.
	Create(acct Account) error
	// Get looks up an account by screen name, case blind.
	Get(name string) (Account, error)
	// List returns all accounts ordered by folded name.
	List() ([]Account, error)
	Close() error
}

func key(name string) string { return broker.NameKey(name) }
