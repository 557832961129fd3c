package service

import "golang.org/x/crypto/bcrypt"

// Config holds configuration for the brokerage.
type Config struct {
	// ActivityCapacity is the maximum number of activity entries to keep.
	ActivityCapacity int
	// BcryptCost is the cost used to hash new passwords.
	BcryptCost int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		ActivityCapacity: 100,
		BcryptCost:       bcrypt.DefaultCost,
	}
}
