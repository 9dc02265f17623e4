package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache backend.
type Store interface {
	// Get retrieves a value; a missing or expired key yields ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero ttl selects the store default; a negative
	// ttl keeps the value until it is deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Clear removes every value under the store prefix.
	Clear(ctx context.Context) error
}

// Config holds settings shared by all stores.
type Config struct {
	// DefaultTTL is used when Set is called with a zero ttl.
	DefaultTTL time.Duration
	// Prefix is prepended to all keys.
	Prefix string
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 24 * time.Hour,
		Prefix:     "pchp:",
	}
}

// ErrMiss is returned when a key is not in the cache.
type ErrMiss struct {
	Key string
}

func (e ErrMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	_, ok := err.(ErrMiss)
	return ok
}

// expiry converts a ttl into an absolute expiration; zero means never.
func (c Config) expiry(ttl time.Duration, now time.Time) time.Time {
	if ttl == 0 {
		ttl = c.DefaultTTL
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
