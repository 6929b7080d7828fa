package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// QuoteResult pairs a quote with the provider that served it.
type QuoteResult struct {
	Provider string `json:"provider"`
	Quote    Quote  `json:"quote"`
}

// BarsResult pairs a bar batch with the provider that served it.
type BarsResult struct {
	Provider string `json:"provider"`
	Bars     []Bar  `json:"bars"`
}

// Selector serves quote and bar reads through a TTL cache backed by a
// primary and a fallback vendor. A cached quote is revalidated against the
// freshness SLA on every hit and evicted when stale; cached bars are treated
// as immutable and returned as-is until they expire.
type Selector struct {
	primary   Provider
	fallback  Provider
	cache     *TTLCache
	cacheTTL  time.Duration
	freshness time.Duration
	now       func() time.Time
}

// SelectorOption customises a Selector.
type SelectorOption func(*Selector)

// WithSelectorClock overrides the freshness clock, for tests.
func WithSelectorClock(now func() time.Time) SelectorOption {
	return func(s *Selector) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSelector wires the quote/bars read path. The cache and both providers
// are injected at construction; the selector holds no hidden globals.
func NewSelector(primary, fallback Provider, cache *TTLCache, freshness time.Duration, opts ...SelectorOption) *Selector {
	s := &Selector{
		primary:   primary,
		fallback:  fallback,
		cache:     cache,
		cacheTTL:  cache.ttl,
		freshness: freshness,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func quoteKey(symbol string) string {
	return fmt.Sprintf("quote:%s", CanonicalSymbol(symbol))
}

func barsKey(symbol, interval string, outputSize int) string {
	return fmt.Sprintf("bars:%s:%s:%d", CanonicalSymbol(symbol), interval, outputSize)
}

// Quote returns a validated quote, serving from cache when fresh enough.
func (s *Selector) Quote(ctx context.Context, symbol string) (*QuoteResult, error) {
	key := quoteKey(symbol)
	if value, ok := s.cache.Get(key); ok {
		cached := value.(*QuoteResult)
		if err := ValidateQuoteAt(cached.Quote, s.freshness, s.now()); err == nil {
			logx.WithContext(ctx).Infow("quote served",
				logx.Field("provider", cached.Provider),
				logx.Field("symbol", CanonicalSymbol(symbol)),
				logx.Field("source", "cache"),
			)
			return cached, nil
		}
		s.cache.Delete(key)
	}

	quote, err := s.primary.FetchQuote(ctx, symbol)
	if err == nil {
		err = ValidateQuoteAt(*quote, s.freshness, s.now())
	}
	if err == nil {
		result := &QuoteResult{Provider: s.primary.Name(), Quote: *quote}
		s.cache.Set(key, result)
		s.logServed(ctx, "quote", result.Provider, symbol)
		return result, nil
	}
	if Classify(err) != OutcomeTransient {
		return nil, err
	}
	logx.WithContext(ctx).Infow("quote primary failed, trying fallback",
		logx.Field("primary", s.primary.Name()),
		logx.Field("symbol", CanonicalSymbol(symbol)),
		logx.Field("reason", err.Error()),
	)

	quote, err = s.fallback.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	// The fallback vendor may publish on a slower cadence; relax freshness
	// to at least the cache TTL so its quotes remain servable.
	relaxed := s.freshness
	if s.cacheTTL > relaxed {
		relaxed = s.cacheTTL
	}
	if err := ValidateQuoteAt(*quote, relaxed, s.now()); err != nil {
		return nil, err
	}
	result := &QuoteResult{Provider: s.fallback.Name(), Quote: *quote}
	s.cache.Set(key, result)
	s.logServed(ctx, "quote", result.Provider, symbol)
	return result, nil
}

// Bars returns a validated bar batch, serving from cache when present.
func (s *Selector) Bars(ctx context.Context, symbol, interval string, outputSize int) (*BarsResult, error) {
	key := barsKey(symbol, interval, outputSize)
	if value, ok := s.cache.Get(key); ok {
		cached := value.(*BarsResult)
		logx.WithContext(ctx).Infow("bars served",
			logx.Field("provider", cached.Provider),
			logx.Field("symbol", CanonicalSymbol(symbol)),
			logx.Field("source", "cache"),
		)
		return cached, nil
	}

	bars, err := s.primary.FetchBars(ctx, symbol, interval, outputSize)
	if err == nil {
		err = ValidateBars(bars)
	}
	if err == nil {
		result := &BarsResult{Provider: s.primary.Name(), Bars: bars}
		s.cache.Set(key, result)
		s.logServed(ctx, "bars", result.Provider, symbol)
		return result, nil
	}
	if Classify(err) != OutcomeTransient {
		return nil, err
	}
	logx.WithContext(ctx).Infow("bars primary failed, trying fallback",
		logx.Field("primary", s.primary.Name()),
		logx.Field("symbol", CanonicalSymbol(symbol)),
		logx.Field("reason", err.Error()),
	)

	bars, err = s.fallback.FetchBars(ctx, symbol, interval, outputSize)
	if err != nil {
		return nil, err
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}
	result := &BarsResult{Provider: s.fallback.Name(), Bars: bars}
	s.cache.Set(key, result)
	s.logServed(ctx, "bars", result.Provider, symbol)
	return result, nil
}

func (s *Selector) logServed(ctx context.Context, kind, provider, symbol string) {
	logx.WithContext(ctx).Infow(kind+" served",
		logx.Field("provider", provider),
		logx.Field("symbol", CanonicalSymbol(symbol)),
		logx.Field("source", "live"),
	)
}
