package marketdata

import (
	"sync"
	"time"
)

// DefaultCacheTTL matches the reference deployment.
const DefaultCacheTTL = 60 * time.Second

type cacheEntry struct {
	expiresAt time.Time
	value     any
}

// TTLCache is a mutex-guarded key -> (expiry, value) store. Expiry is
// evaluated against the monotonic reading carried by time.Time, so wall-clock
// skew cannot resurrect or prematurely kill entries. Eviction is lazy: an
// expired entry is removed on the next Get, there is no background sweep.
// The mutex is held only for map access, never across I/O.
type TTLCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// CacheOption customises a TTLCache.
type CacheOption func(*TTLCache)

// WithCacheClock overrides the cache clock, for tests.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *TTLCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTTLCache constructs an empty cache. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewTTLCache(ttl time.Duration, opts ...CacheOption) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &TTLCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live value for key, or ok=false on a miss. An entry at or
// past its expiry is evicted and reported as a miss.
func (c *TTLCache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.After(now) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key with the configured TTL, overwriting any
// previous entry.
func (c *TTLCache) Set(key string, value any) {
	expiresAt := c.now().Add(c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{expiresAt: expiresAt, value: value}
}

// Delete evicts key immediately. Used when a cached value fails
// revalidation.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len reports the number of stored entries, expired or not.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
