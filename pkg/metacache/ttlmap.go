// Package metacache holds short-lived extractor metadata so repeated
// lookups of the same URL do not spawn the extractor again.
package metacache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	val       V
	expiresAt time.Time
}

// TTLMap is a string-keyed map whose entries expire a fixed time after
// they were written. Expired entries read as absent; they are only
// removed by Sweep.
type TTLMap[V any] struct {
	kv  map[string]entry[V]
	ttl time.Duration
	now func() time.Time
	mu  sync.RWMutex
}

// NewTTLMap returns an empty map with the given ttl and clock.
func NewTTLMap[V any](ttl time.Duration, now func() time.Time) *TTLMap[V] {
	if now == nil {
		now = time.Now
	}
	return &TTLMap[V]{
		kv:  make(map[string]entry[V]),
		ttl: ttl,
		now: now,
	}
}

// Get returns the value for key if it is present and not expired.
func (m *TTLMap[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.kv[key]
	if !ok || m.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Put stores val under key with a fresh expiry.
func (m *TTLMap[V]) Put(key string, val V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = entry[V]{val: val, expiresAt: m.now().Add(m.ttl)}
}

// Sweep removes expired entries and returns how many it removed.
func (m *TTLMap[V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int
	for k, e := range m.kv {
		if now.After(e.expiresAt) {
			delete(m.kv, k)
			n++
		}
	}
	return n
}

// Clear removes every entry.
func (m *TTLMap[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv = make(map[string]entry[V])
}

// Len counts stored entries, expired or not.
func (m *TTLMap[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.kv)
}
