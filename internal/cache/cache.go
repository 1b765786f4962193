// Package cache provides a TTL cache with get-or-compute semantics.
// One instance per upstream resource type, parameterized by TTL.
package cache

import (
	"context"
	"sync"
	"time"
)

// entry is a cached value plus the time it was stored.
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a TTL map keyed by request signature. Entries are invalidated
// purely by age; expiry is checked on read, there is no background
// eviction.
type Cache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[V]

	hits   int64
	misses int64

	clock func() time.Time
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock sets a custom clock function for deterministic tests.
func WithClock[V any](clock func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		c.clock = clock
	}
}

// New creates a Cache whose entries expire after ttl.
func New[V any](ttl time.Duration, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key if it is younger than the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.clock().Sub(e.storedAt) >= c.ttl {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key, stamping it with the current time.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.clock()}
}

// GetOrLoad returns the cached value for key, or calls loader on a miss
// and caches its result. Loader errors are returned without caching, so a
// failed load is retried on the next call.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := loader(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.Set(key, v)
	return v, nil
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
}
