package twelvedata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apollo67-api/pkg/marketdata"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("apikey") == "" {
			t.Error("apikey query parameter missing")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchQuote(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/quote": `{"symbol":"AAPL","timestamp":1770734700,"close":"182.36","bid":"182.30","ask":"182.40"}`,
	})
	client := NewClient("twelvedata", WithAPIKey("k"), WithBaseURL(server.URL))

	quote, err := client.FetchQuote(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "TWELVEDATA:AAPL", quote.InstrumentID)
	assert.Equal(t, 182.36, quote.Last)
	require.NotNil(t, quote.Bid)
	assert.Equal(t, 182.30, *quote.Bid)
	assert.Equal(t, time.Unix(1770734700, 0).UTC(), quote.TsEvent)
	assert.False(t, quote.TsIngest.IsZero())
}

func TestFetchBars(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/time_series": `{"values":[
			{"datetime":"2026-02-09","open":"181.00","high":"183.00","low":"180.50","close":"182.36","volume":"1200"},
			{"datetime":"2026-02-10","open":"182.40","high":"184.10","low":"182.00","close":"183.90","volume":"1500"}
		]}`,
	})
	client := NewClient("twelvedata", WithAPIKey("k"), WithBaseURL(server.URL))

	bars, err := client.FetchBars(context.Background(), "AAPL", "1day", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "1day", bars[0].Timeframe)
	assert.Equal(t, 182.36, bars[0].Close)
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), bars[1].TsEvent)
	assert.NoError(t, marketdata.ValidateBars(bars))
}

func TestSearchSymbols(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/symbol_search": `{"data":[{"symbol":"AAPL","instrument_name":"Apple Inc","exchange":"NASDAQ","instrument_type":"Common Stock","currency":"USD","country":"United States"}]}`,
	})
	client := NewClient("twelvedata", WithAPIKey("k"), WithBaseURL(server.URL))

	matches, err := client.SearchSymbols(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "AAPL", matches[0].Symbol)
	assert.Equal(t, "Apple Inc", matches[0].Name)
}

func TestErrorClassification(t *testing.T) {
	t.Run("http 429 is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()
		client := NewClient("twelvedata", WithAPIKey("k"), WithBaseURL(server.URL))

		_, err := client.FetchQuote(context.Background(), "AAPL")
		require.Error(t, err)
		var perr *marketdata.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.True(t, perr.Transient)
		assert.Equal(t, marketdata.OutcomeTransient, marketdata.Classify(err))
	})

	t.Run("embedded api error", func(t *testing.T) {
		// Twelve Data reports errors 200 OK with a status field
		server := newTestServer(t, map[string]string{
			"/quote": `{"status":"error","code":401,"message":"invalid api key"}`,
		})
		client := NewClient("twelvedata", WithAPIKey("bad"), WithBaseURL(server.URL))

		_, err := client.FetchQuote(context.Background(), "AAPL")
		require.Error(t, err)
		var perr *marketdata.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.False(t, perr.Transient)
		assert.Contains(t, err.Error(), "invalid api key")
	})

	t.Run("embedded 429 is transient", func(t *testing.T) {
		server := newTestServer(t, map[string]string{
			"/quote": `{"status":"error","code":429,"message":"run out of credits"}`,
		})
		client := NewClient("twelvedata", WithAPIKey("k"), WithBaseURL(server.URL))

		_, err := client.FetchQuote(context.Background(), "AAPL")
		var perr *marketdata.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.True(t, perr.Transient)
	})
}

func TestFetchDataset_OnlyPriceBarsWithUniverse(t *testing.T) {
	client := NewClient("twelvedata", WithAPIKey("k"))

	_, err := client.FetchDataset(context.Background(), marketdata.DatasetInstrument)
	require.Error(t, err)
	assert.True(t, errors.Is(err, marketdata.ErrProviderUnavailable), "non-bar datasets report unavailable for failover")

	// price bars without a configured universe are also unavailable
	_, err = client.FetchDataset(context.Background(), marketdata.DatasetPriceBar)
	assert.True(t, errors.Is(err, marketdata.ErrProviderUnavailable))
}

func TestFetchDataset_Universe(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/time_series": `{"values":[{"datetime":"2026-02-10","open":"181.00","high":"183.00","low":"180.50","close":"182.36","volume":"1200"}]}`,
	})
	client := NewClient("twelvedata",
		WithAPIKey("k"),
		WithBaseURL(server.URL),
		WithUniverse([]string{"AAPL", "MSFT"}, "1day"),
	)

	result, err := client.FetchDataset(context.Background(), marketdata.DatasetPriceBar)
	require.NoError(t, err)
	assert.Equal(t, marketdata.DatasetPriceBar, result.Dataset)
	assert.Len(t, result.Records, 2, "one bar per universe symbol")
}

func TestParseEventTime(t *testing.T) {
	got, err := parseEventTime("2026-02-10 14:30:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC), got)

	_, err = parseEventTime("")
	assert.Error(t, err)
	_, err = parseEventTime("not-a-date")
	assert.Error(t, err)
}
