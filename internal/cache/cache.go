// Package cache provides a generic in-memory key/value store with per-entry
// TTL, lazy expiry on read, and full introspection for operational dashboards.
//
// Entries expire passively: a Get past the TTL behaves as a miss and evicts
// the entry. There is no background sweeper, so Status can report entries
// that are expired but still resident until the next read touches them.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the fallback lifetime for entries stored without an
// explicit override. The upstream report publishes weekly, so one hour is
// a conservative safety margin rather than a freshness guarantee.
const DefaultTTL = time.Hour

type entry[V any] struct {
	value    V
	cachedAt time.Time
	ttl      time.Duration
}

// Store is a concurrency-safe TTL cache. The zero value is not usable;
// construct instances with New.
type Store[V any] struct {
	mu            sync.RWMutex
	entries       map[string]entry[V]
	name          string
	defaultTTL    time.Duration
	lastClearedAt time.Time

	// now is swappable for deterministic expiry tests.
	now func() time.Time
}

// Option configures a Store at construction time.
type Option[V any] func(*Store[V])

// WithDefaultTTL overrides the store-wide default entry lifetime.
func WithDefaultTTL[V any](ttl time.Duration) Option[V] {
	return func(s *Store[V]) { s.defaultTTL = ttl }
}

// WithClock injects an alternative time source.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(s *Store[V]) { s.now = now }
}

// New creates an empty store. The name labels the instance in metrics and
// in Status output; each cache domain (raw data, API responses) gets its
// own instance.
func New[V any](name string, opts ...Option[V]) *Store[V] {
	s := &Store[V]{
		entries:    make(map[string]entry[V]),
		name:       name,
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the instance label given at construction.
func (s *Store[V]) Name() string { return s.name }

// Get returns the value stored under key if it has not outlived its TTL.
// An expired entry is evicted and reported as a miss.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	var zero V
	if !ok {
		missesTotal.WithLabelValues(s.name).Inc()
		return zero, false
	}

	if s.expired(e) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry between the two lock acquisitions.
		if cur, still := s.entries[key]; still && s.expired(cur) {
			delete(s.entries, key)
			evictionsTotal.WithLabelValues(s.name).Inc()
		}
		s.mu.Unlock()
		missesTotal.WithLabelValues(s.name).Inc()
		return zero, false
	}

	hitsTotal.WithLabelValues(s.name).Inc()
	return e.value, true
}

// Set stores value under key with the default TTL, unconditionally
// overwriting any existing entry.
func (s *Store[V]) Set(key string, value V) {
	s.SetWithTTL(key, value, s.defaultTTL)
}

// SetWithTTL stores value under key with an explicit lifetime.
func (s *Store[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{value: value, cachedAt: s.now(), ttl: ttl}
}

// Has reports whether a Get for key would succeed. It shares Get's eviction
// behavior for expired entries.
func (s *Store[V]) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// ClearAll evicts every entry and returns the number removed. The clear
// timestamp is recorded for cache-health reporting.
func (s *Store[V]) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]entry[V])
	s.lastClearedAt = s.now()
	evictionsTotal.WithLabelValues(s.name).Add(float64(n))
	return n
}

// ClearByPrefix evicts only entries whose key starts with prefix, for
// narrow invalidation such as a single symbol. Returns the number removed.
func (s *Store[V]) ClearByPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
			n++
		}
	}
	evictionsTotal.WithLabelValues(s.name).Add(float64(n))
	return n
}

func (s *Store[V]) expired(e entry[V]) bool {
	return s.now().Sub(e.cachedAt) > e.ttl
}
