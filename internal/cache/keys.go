package cache

import (
	"fmt"
	"strings"
	"time"

	"apollo67-api/internal/config"
)

// Namespace is the Redis key prefix for the Apollo 67 data service.
const Namespace = "apollo67"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// Scaled applies a multiplier to a TTL class, useful for half/double TTL variants.
func (t TTLSet) Scaled(class TTLClass, factor float64) time.Duration {
	base := t.Duration(class)
	if base <= 0 || factor <= 0 {
		return base
	}
	return time.Duration(float64(base) * factor)
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Quote & Bar Keys -------------------------------------------------------

// QuoteLatestKey returns the default latest quote key without provider scoping.
func QuoteLatestKey(symbol string) string {
	return formatKey("quote", "latest", symbol)
}

// QuoteLatestByProviderKey returns the latest quote key scoped by provider.
func QuoteLatestByProviderKey(provider, symbol string) string {
	return formatKey("quote", "latest", provider, symbol)
}

// BarsKey holds a cached bar batch for a symbol/interval/size triple.
func BarsKey(symbol, interval string, outputSize int) string {
	return formatKey("bars", symbol, interval, fmt.Sprintf("%d", outputSize))
}

// InstrumentKey stores canonical instrument metadata.
func InstrumentKey(instrumentID string) string {
	return formatKey("instrument", instrumentID)
}

// --- Ingestion Keys ---------------------------------------------------------

// CuratedVersionKey caches the latest curated version stamp per dataset.
func CuratedVersionKey(dataset string) string {
	return formatKey("curated", dataset, "version")
}

// IngestLockKey is used as a short-lived per-dataset ingestion lock.
func IngestLockKey(dataset string) string {
	return formatKey("lock", "ingest", dataset)
}

// IngestReportKey stores the latest run report per dataset.
func IngestReportKey(dataset string) string {
	return formatKey("ingest", "report", dataset)
}

// --- Signal Keys ------------------------------------------------------------

// SignalBasicKey caches a computed basic signal per symbol.
func SignalBasicKey(symbol string) string {
	return formatKey("signal", "basic", symbol)
}

// --- TTL Helpers ------------------------------------------------------------

// QuoteTTL returns the short-lived TTL for individual quote keys.
func QuoteTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}

// BarsTTL returns the TTL for bar batch payloads.
func BarsTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// InstrumentTTL returns the TTL for static instrument metadata.
func InstrumentTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// CuratedVersionTTL returns the TTL for curated version stamps.
func CuratedVersionTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// IngestLockTTL returns the TTL for per-dataset ingestion locks.
func IngestLockTTL(ttl TTLSet) time.Duration {
	return ttl.Scaled(TTLShort, 0.5) // target ~5s when short=10s
}

// IngestReportTTL returns the TTL for cached run reports.
func IngestReportTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// SignalTTL returns the TTL for cached signal payloads.
func SignalTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// FormatCacheKey is exported for dynamic key construction when patterns
// are not covered by helpers.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}

// BuildKeyWithSuffix appends an arbitrary suffix to an existing key.
func BuildKeyWithSuffix(baseKey, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		return baseKey
	}
	return fmt.Sprintf("%s:%s", baseKey, strings.TrimSpace(suffix))
}
