package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns scripted quote/bars responses and counts calls.
type fakeProvider struct {
	name       string
	quote      *Quote
	quoteErr   error
	bars       []Bar
	barsErr    error
	quoteCalls int
	barsCalls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	q := *f.quote
	return &q, nil
}

func (f *fakeProvider) FetchBars(ctx context.Context, symbol, interval string, outputSize int) ([]Bar, error) {
	f.barsCalls++
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	return f.bars, nil
}

func (f *fakeProvider) SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error) {
	return nil, nil
}

func (f *fakeProvider) FetchDataset(ctx context.Context, dataset string) (*ProviderResult, error) {
	return nil, ErrProviderUnavailable
}

func freshQuote(name string, now time.Time) *Quote {
	return &Quote{
		InstrumentID:   "A67.AAPL",
		TsEvent:        now.Add(-time.Second),
		TsIngest:       now,
		Last:           182.36,
		SourceProvider: name,
	}
}

func TestSelectorQuote_CacheHitAndRevalidation(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	primary := &fakeProvider{name: "primary", quote: freshQuote("primary", now)}
	fallback := &fakeProvider{name: "fallback"}
	cache := NewTTLCache(time.Hour, WithCacheClock(clock))
	sel := NewSelector(primary, fallback, cache, 5*time.Minute, WithSelectorClock(clock))

	res, err := sel.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Provider)
	assert.Equal(t, 1, primary.quoteCalls)

	// second read inside the SLA comes from cache
	res, err = sel.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Provider)
	assert.Equal(t, 1, primary.quoteCalls, "cache hit should not refetch")

	// advance past the freshness SLA but inside the cache TTL: the cached
	// quote fails revalidation, gets evicted, and the provider serves a
	// fresh one
	now = now.Add(6 * time.Minute)
	primary.quote = freshQuote("primary", now)
	res, err = sel.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, primary.quoteCalls, "stale cached quote must be refetched")
	assert.Equal(t, now, res.Quote.TsIngest)
}

func TestSelectorQuote_TransientFailover(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	primary := &fakeProvider{name: "primary", quoteErr: &ProviderError{
		Provider: "primary", Op: "quote", Err: errors.New("503 service unavailable"), Transient: true,
	}}
	fallback := &fakeProvider{name: "fallback", quote: freshQuote("fallback", now)}
	cache := NewTTLCache(time.Minute, WithCacheClock(clock))
	sel := NewSelector(primary, fallback, cache, 5*time.Minute, WithSelectorClock(clock))

	res, err := sel.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Provider)
	assert.Equal(t, 1, fallback.quoteCalls)
}

func TestSelectorQuote_FatalErrorDoesNotFailOver(t *testing.T) {
	now := time.Now().UTC()
	clock := func() time.Time { return now }

	primary := &fakeProvider{name: "primary", quoteErr: &ProviderError{
		Provider: "primary", Op: "quote", Err: errors.New("bad api key"),
	}}
	fallback := &fakeProvider{name: "fallback", quote: freshQuote("fallback", now)}
	cache := NewTTLCache(time.Minute, WithCacheClock(clock))
	sel := NewSelector(primary, fallback, cache, 5*time.Minute, WithSelectorClock(clock))

	_, err := sel.Quote(context.Background(), "AAPL")
	assert.Error(t, err)
	assert.Equal(t, 0, fallback.quoteCalls, "fatal errors must not reach the fallback")
}

func TestSelectorBars_CachedBatchIsImmutable(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	bars := []Bar{validBar(now.Add(-48 * time.Hour)), validBar(now.Add(-24 * time.Hour))}
	primary := &fakeProvider{name: "primary", bars: bars}
	fallback := &fakeProvider{name: "fallback"}
	cache := NewTTLCache(time.Hour, WithCacheClock(clock))
	sel := NewSelector(primary, fallback, cache, 5*time.Minute, WithSelectorClock(clock))

	res, err := sel.Bars(context.Background(), "AAPL", "1day", 2)
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Provider)

	// bars well past the quote freshness SLA still serve from cache:
	// historical bars never revalidate
	now = now.Add(30 * time.Minute)
	res, err = sel.Bars(context.Background(), "AAPL", "1day", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.barsCalls, "cached bars are immutable until TTL expiry")
	assert.Len(t, res.Bars, 2)
}

func TestSelectorBars_ValidationFailureFailsOver(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	bad := validBar(now)
	bad.High = bad.Close - 5 // broken OHLC bound
	good := []Bar{validBar(now.Add(-24 * time.Hour))}

	primary := &fakeProvider{name: "primary", bars: []Bar{bad}}
	fallback := &fakeProvider{name: "fallback", bars: good}
	cache := NewTTLCache(time.Minute, WithCacheClock(clock))
	sel := NewSelector(primary, fallback, cache, 5*time.Minute, WithSelectorClock(clock))

	res, err := sel.Bars(context.Background(), "AAPL", "1day", 1)
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Provider, "structurally invalid primary data is a transient condition")
}
