package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_ExpiryWithInjectedClock(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := NewTTLCache(10*time.Second, WithCacheClock(clock))

	cache.Set("quote:AAPL", "v1")

	got, ok := cache.Get("quote:AAPL")
	assert.True(t, ok, "entry should be live before expiry")
	assert.Equal(t, "v1", got)

	now = now.Add(10 * time.Second)
	_, ok = cache.Get("quote:AAPL")
	assert.False(t, ok, "entry at exact expiry should be evicted")
	assert.Equal(t, 0, cache.Len(), "lazy eviction should remove the entry")
}

func TestTTLCache_SetOverwritesAndExtends(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := NewTTLCache(10*time.Second, WithCacheClock(clock))

	cache.Set("k", "v1")
	now = now.Add(8 * time.Second)
	cache.Set("k", "v2")
	now = now.Add(8 * time.Second)

	got, ok := cache.Get("k")
	assert.True(t, ok, "overwrite should reset the expiry")
	assert.Equal(t, "v2", got)
}

func TestTTLCache_DeleteAndDefaultTTL(t *testing.T) {
	cache := NewTTLCache(0)
	assert.Equal(t, DefaultCacheTTL, cache.ttl, "non-positive ttl falls back to default")

	cache.Set("k", 1)
	cache.Delete("k")
	_, ok := cache.Get("k")
	assert.False(t, ok, "deleted entry should miss")
}
