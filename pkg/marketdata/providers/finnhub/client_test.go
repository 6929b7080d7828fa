package finnhub

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
		if r.URL.Query().Get("token") == "" {
			t.Error("token query parameter missing")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchQuote(t *testing.T) {
	now := time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)
	server := newTestServer(t, map[string]string{
		"/quote": `{"c":182.36,"h":183.1,"l":181.2,"o":181.9,"pc":181.5,"t":1770734700}`,
	})
	client := NewClient("finnhub",
		WithAPIKey("k"),
		WithBaseURL(server.URL),
		WithClock(func() time.Time { return now }),
	)

	quote, err := client.FetchQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "FINNHUB:AAPL", quote.InstrumentID)
	assert.Equal(t, 182.36, quote.Last)
	assert.Equal(t, now, quote.TsIngest)
}

func TestFetchQuote_EmptyPayloadIsNotFound(t *testing.T) {
	// Finnhub reports unknown symbols as all-zero payloads
	server := newTestServer(t, map[string]string{
		"/quote": `{"c":0,"h":0,"l":0,"o":0,"pc":0,"t":0}`,
	})
	client := NewClient("finnhub", WithAPIKey("k"), WithBaseURL(server.URL))

	_, err := client.FetchQuote(context.Background(), "NOPE")
	require.Error(t, err)
	var perr *marketdata.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Transient)
	assert.Contains(t, err.Error(), "symbol not found")
}

func TestFetchBars(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/stock/candle": `{"s":"ok","t":[1770595200,1770681600],"o":[181.0,182.4],"h":[183.0,184.1],"l":[180.5,182.0],"c":[182.36,183.9],"v":[1200,1500]}`,
	})
	client := NewClient("finnhub", WithAPIKey("k"), WithBaseURL(server.URL))

	bars, err := client.FetchBars(context.Background(), "AAPL", "1day", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 183.9, bars[1].Close)
	assert.NoError(t, marketdata.ValidateBars(bars))
}

func TestFetchBars_NoData(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/stock/candle": `{"s":"no_data"}`,
	})
	client := NewClient("finnhub", WithAPIKey("k"), WithBaseURL(server.URL))

	_, err := client.FetchBars(context.Background(), "AAPL", "1day", 2)
	require.Error(t, err)
	var perr *marketdata.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Transient)
}

func TestFetchBars_RaggedSeriesTruncated(t *testing.T) {
	// volume series one element short: the shorter length wins
	server := newTestServer(t, map[string]string{
		"/stock/candle": `{"s":"ok","t":[1770595200,1770681600],"o":[181.0,182.4],"h":[183.0,184.1],"l":[180.5,182.0],"c":[182.36,183.9],"v":[1200]}`,
	})
	client := NewClient("finnhub", WithAPIKey("k"), WithBaseURL(server.URL))

	bars, err := client.FetchBars(context.Background(), "AAPL", "1day", 2)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestSearchSymbols(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/search": `{"result":[{"symbol":"AAPL","description":"APPLE INC","type":"Common Stock"}]}`,
	})
	client := NewClient("finnhub", WithAPIKey("k"), WithBaseURL(server.URL))

	matches, err := client.SearchSymbols(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "AAPL", matches[0].Symbol)
}

func TestFetchDataset_AlwaysUnavailable(t *testing.T) {
	client := NewClient("finnhub", WithAPIKey("k"))
	_, err := client.FetchDataset(context.Background(), marketdata.DatasetPriceBar)
	require.Error(t, err)
	assert.True(t, errors.Is(err, marketdata.ErrProviderUnavailable))
}

func TestServerErrorsAreTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	client := NewClient("finnhub", WithAPIKey("k"), WithBaseURL(server.URL))

	_, err := client.FetchQuote(context.Background(), "AAPL")
	var perr *marketdata.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Transient)
}
