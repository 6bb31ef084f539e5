// Package cache implements the name cache that sits in front of the
// resolution pipeline (§4.J support). The SAF (server affinity) cache and
// the negative-connection cache live in internal/resolver.
package cache

import (
	"sync"
	"time"

	"github.com/netbios-go/nbtresolve/internal/ipservice"
)

// entry is one cached value with its own expiry, independent of any other
// entry's TTL.
type entry struct {
	services []ipservice.IPService // nil/empty slice represents a cached negative hit
	expires  time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expires)
}

// Store is the name cache's storage contract. Both the in-memory and
// Badger-backed implementations satisfy it identically, so callers can
// swap persistence without touching resolution logic.
type Store interface {
	// Get returns the cached services for key and whether the key was
	// present and unexpired. A present entry with a nil/empty slice is a
	// cached negative hit — present is true, services is empty.
	Get(key string) (services []ipservice.IPService, present bool)
	// Set stores services under key for ttl. An empty services slice
	// records a negative hit.
	Set(key string, services []ipservice.IPService, ttl time.Duration)
	// Delete removes key immediately, ahead of its TTL.
	Delete(key string)
	Close() error
}

// MemStore is the default, hermetic in-memory Store: a mutex-guarded map
// with lazy expiry, adapted from the teacher's service registry shape.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemStore creates an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]entry)}
}

func (m *MemStore) Get(key string) ([]ipservice.IPService, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.services, true
}

func (m *MemStore) Set(key string, services []ipservice.IPService, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{services: services, expires: time.Now().Add(ttl)}
}

func (m *MemStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *MemStore) Close() error { return nil }
