package cache

import (
	"testing"
	"time"

	"apollo67-api/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "apollo67:quote:latest:AAPL", QuoteLatestKey("AAPL"))
	assert.Equal(t, "apollo67:quote:latest:twelvedata:AAPL", QuoteLatestByProviderKey("twelvedata", "AAPL"))
	assert.Equal(t, "apollo67:bars:AAPL:1day:500", BarsKey("AAPL", "1day", 500))
	assert.Equal(t, "apollo67:instrument:A67.AAPL", InstrumentKey("A67.AAPL"))
	assert.Equal(t, "apollo67:curated:price_bar:version", CuratedVersionKey("price_bar"))
	assert.Equal(t, "apollo67:lock:ingest:price_bar", IngestLockKey("price_bar"))
	assert.Equal(t, "apollo67:ingest:report:price_bar", IngestReportKey("price_bar"))
	assert.Equal(t, "apollo67:signal:basic:NVDA", SignalBasicKey("NVDA"))
}

func TestFormatKey_SkipsBlankParts(t *testing.T) {
	assert.Equal(t, "apollo67:a:b", FormatCacheKey("a", " ", "", "b"))
	assert.Equal(t, "apollo67:a:b:suffix", BuildKeyWithSuffix(FormatCacheKey("a", "b"), " suffix "))
	assert.Equal(t, "apollo67:a", BuildKeyWithSuffix(FormatCacheKey("a"), ""))
}

func TestNewTTLSet(t *testing.T) {
	ttl := NewTTLSet(config.CacheTTL{Short: 10, Medium: 60, Long: 300})
	assert.Equal(t, 10*time.Second, ttl.Short)
	assert.Equal(t, time.Minute, ttl.Medium)
	assert.Equal(t, 5*time.Minute, ttl.Long)

	// zero values fall back to defaults, negatives disable caching
	ttl = NewTTLSet(config.CacheTTL{Short: 0, Medium: -1, Long: 0})
	assert.Equal(t, 10*time.Second, ttl.Short)
	assert.Equal(t, time.Duration(0), ttl.Medium)
	assert.Equal(t, 5*time.Minute, ttl.Long)
}

func TestTTLHelpers(t *testing.T) {
	ttl := NewTTLSet(config.CacheTTL{Short: 10, Medium: 60, Long: 300})

	assert.Equal(t, 10*time.Second, QuoteTTL(ttl))
	assert.Equal(t, time.Minute, BarsTTL(ttl))
	assert.Equal(t, 5*time.Minute, InstrumentTTL(ttl))
	assert.Equal(t, 5*time.Minute, CuratedVersionTTL(ttl))
	assert.Equal(t, 5*time.Second, IngestLockTTL(ttl))
	assert.Equal(t, time.Minute, IngestReportTTL(ttl))
	assert.Equal(t, time.Minute, SignalTTL(ttl))

	assert.Equal(t, time.Duration(0), ttl.Duration(TTLClass("bogus")))
	assert.Equal(t, 2*time.Minute, ttl.Scaled(TTLMedium, 2))
	assert.Equal(t, time.Minute, ttl.Scaled(TTLMedium, 0), "non-positive factor returns the base")
}
