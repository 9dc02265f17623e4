package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value      []byte
	expiration time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

// MemoryStore is an in-process Store, used when no Redis address is
// configured and in tests.
type MemoryStore struct {
	config  Config
	entries map[string]memoryEntry
	mu      sync.RWMutex

	// now is replaced in tests
	now func() time.Time
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore(config Config) *MemoryStore {
	return &MemoryStore{
		config:  config,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get retrieves a value from the store
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entry, ok := m.entries[m.config.Prefix+key]
	m.mu.RUnlock()

	// expired entries are left for Prune
	if !ok || entry.expired(m.now()) {
		return nil, ErrMiss{Key: key}
	}
	return append([]byte(nil), entry.value...), nil
}

// Set stores a value in the store
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.config.Prefix+key] = memoryEntry{
		value:      append([]byte(nil), value...),
		expiration: m.config.expiry(ttl, m.now()),
	}
	return nil
}

// Delete removes a value from the store
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, m.config.Prefix+key)
	return nil
}

// Clear removes every entry under the store prefix
func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.entries {
		if strings.HasPrefix(k, m.config.Prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Size returns the number of entries, expired ones included
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Prune removes expired entries and returns how many were removed
func (m *MemoryStore) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	pruned := 0
	for k, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, k)
			pruned++
		}
	}
	return pruned
}
