package repo

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"

	cachekeys "apollo67-api/internal/cache"
	"apollo67-api/pkg/marketdata"
)

// QuoteCacheRepo shares fetched quotes and bar batches across instances via
// Redis. It degrades to a no-op when no cache backend is configured.
type QuoteCacheRepo struct {
	cache cache.Cache
	ttl   cachekeys.TTLSet
}

func newQuoteCacheRepo(deps Dependencies) *QuoteCacheRepo {
	return &QuoteCacheRepo{cache: deps.Cache, ttl: deps.TTL}
}

func (r *QuoteCacheRepo) getCache(ctx context.Context, key string, v any) bool {
	if r == nil || r.cache == nil {
		return false
	}
	if err := r.cache.GetCtx(ctx, key, v); err != nil {
		if !r.cache.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("get cache %s: %v", key, err)
		}
		return false
	}
	return true
}

func (r *QuoteCacheRepo) setCache(ctx context.Context, key string, ttl time.Duration, v any) {
	if r == nil || r.cache == nil || ttl <= 0 {
		return
	}
	if err := r.cache.SetWithExpireCtx(ctx, key, v, ttl); err != nil {
		logx.WithContext(ctx).Errorf("set cache %s: %v", key, err)
	}
}

// GetQuote returns a shared cached quote with the provider that served it,
// if present. Callers revalidate freshness before serving a hit.
func (r *QuoteCacheRepo) GetQuote(ctx context.Context, symbol string) (*marketdata.QuoteResult, bool) {
	var cached marketdata.QuoteResult
	if !r.getCache(ctx, cachekeys.QuoteLatestKey(symbol), &cached) {
		return nil, false
	}
	return &cached, true
}

// SetQuote stores a freshly fetched quote and its serving provider under the
// short TTL bucket.
func (r *QuoteCacheRepo) SetQuote(ctx context.Context, symbol string, result *marketdata.QuoteResult) {
	if result == nil {
		return
	}
	r.setCache(ctx, cachekeys.QuoteLatestKey(symbol), cachekeys.QuoteTTL(r.ttl), result)
}

// GetBars returns a shared cached bar batch, if present.
func (r *QuoteCacheRepo) GetBars(ctx context.Context, symbol, interval string, outputSize int) ([]marketdata.Bar, bool) {
	var bars []marketdata.Bar
	if !r.getCache(ctx, cachekeys.BarsKey(symbol, interval, outputSize), &bars) {
		return nil, false
	}
	return bars, true
}

// SetBars stores a bar batch under the medium TTL bucket.
func (r *QuoteCacheRepo) SetBars(ctx context.Context, symbol, interval string, outputSize int, bars []marketdata.Bar) {
	if len(bars) == 0 {
		return
	}
	r.setCache(ctx, cachekeys.BarsKey(symbol, interval, outputSize), cachekeys.BarsTTL(r.ttl), bars)
}
