// Package finnhub adapts the Finnhub REST API to the canonical
// marketdata.Provider interface. It is the reference fallback vendor.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"apollo67-api/pkg/marketdata"
)

const (
	defaultBaseURL     = "https://finnhub.io/api/v1"
	defaultHTTPTimeout = 15 * time.Second
	barsPerDay         = 86400
)

func init() {
	marketdata.RegisterProvider("finnhub", func(name string, cfg *marketdata.ProviderConfig) (marketdata.Provider, error) {
		if cfg.APIKey == "" {
			return nil, errors.New("finnhub: api_key is required")
		}
		opts := []Option{WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		return NewClient(name, opts...), nil
	})
}

// Client calls the Finnhub REST endpoints.
type Client struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the vendor API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL overrides the API root.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClock overrides the clock used for candle windows, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a Finnhub adapter.
func NewClient(name string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements marketdata.Provider.
func (c *Client) Name() string { return c.name }

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("token", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return &marketdata.ProviderError{Provider: c.name, Op: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &marketdata.ProviderError{Provider: c.name, Op: path, Err: err, Transient: isTransportError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return &marketdata.ProviderError{
			Provider:  c.name,
			Op:        path,
			Err:       fmt.Errorf("unexpected status %d", resp.StatusCode),
			Transient: transient,
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &marketdata.ProviderError{Provider: c.name, Op: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type quotePayload struct {
	Current   float64 `json:"c"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Open      float64 `json:"o"`
	PrevClose float64 `json:"pc"`
	Timestamp int64   `json:"t"`
}

// FetchQuote implements marketdata.Provider. Finnhub reports unknown symbols
// as all-zero payloads, which are surfaced as a not-found error.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	symbol = marketdata.CanonicalSymbol(symbol)
	params := url.Values{}
	params.Set("symbol", symbol)
	var payload quotePayload
	if err := c.get(ctx, "/quote", params, &payload); err != nil {
		return nil, err
	}
	if payload.Current <= 0 || payload.Timestamp <= 0 {
		return nil, &marketdata.ProviderError{
			Provider:  c.name,
			Op:        "/quote",
			Err:       fmt.Errorf("symbol not found: empty quote for %s", symbol),
			Transient: true,
		}
	}

	quote := &marketdata.Quote{
		InstrumentID:   fmt.Sprintf("FINNHUB:%s", symbol),
		TsEvent:        time.Unix(payload.Timestamp, 0).UTC(),
		TsIngest:       c.now().UTC(),
		Last:           payload.Current,
		SourceProvider: c.name,
		QualityFlags:   []string{},
	}
	quote.Normalize()
	return quote, nil
}

type candlePayload struct {
	Status    string    `json:"s"`
	Timestamp []int64   `json:"t"`
	Open      []float64 `json:"o"`
	High      []float64 `json:"h"`
	Low       []float64 `json:"l"`
	Close     []float64 `json:"c"`
	Volume    []float64 `json:"v"`
}

// FetchBars implements marketdata.Provider. Finnhub candles only support
// daily resolution here; outputSize is mapped to a trailing day window.
func (c *Client) FetchBars(ctx context.Context, symbol, interval string, outputSize int) ([]marketdata.Bar, error) {
	symbol = marketdata.CanonicalSymbol(symbol)
	if outputSize <= 0 {
		outputSize = 60
	}
	now := c.now()
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("resolution", "D")
	params.Set("from", fmt.Sprintf("%d", now.Unix()-int64(outputSize)*barsPerDay))
	params.Set("to", fmt.Sprintf("%d", now.Unix()))

	var payload candlePayload
	if err := c.get(ctx, "/stock/candle", params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "ok" {
		return nil, &marketdata.ProviderError{
			Provider:  c.name,
			Op:        "/stock/candle",
			Err:       fmt.Errorf("no bars returned for %s: status=%s", symbol, payload.Status),
			Transient: true,
		}
	}

	n := len(payload.Timestamp)
	for _, series := range [][]float64{payload.Open, payload.High, payload.Low, payload.Close, payload.Volume} {
		if len(series) < n {
			n = len(series)
		}
	}

	tsIngest := c.now().UTC()
	bars := make([]marketdata.Bar, 0, n)
	for i := 0; i < n; i++ {
		bar := marketdata.Bar{
			InstrumentID:   fmt.Sprintf("FINNHUB:%s", symbol),
			Timeframe:      interval,
			TsEvent:        time.Unix(payload.Timestamp[i], 0).UTC(),
			TsIngest:       tsIngest,
			Open:           payload.Open[i],
			High:           payload.High[i],
			Low:            payload.Low[i],
			Close:          payload.Close[i],
			Volume:         payload.Volume[i],
			SourceProvider: c.name,
			QualityFlags:   []string{},
		}
		bar.Normalize()
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, &marketdata.ProviderError{
			Provider:  c.name,
			Op:        "/stock/candle",
			Err:       fmt.Errorf("no bars returned for %s", symbol),
			Transient: true,
		}
	}
	return bars, nil
}

type searchPayload struct {
	Result []struct {
		Symbol      string `json:"symbol"`
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"result"`
}

// SearchSymbols implements marketdata.Provider.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]marketdata.SymbolMatch, error) {
	params := url.Values{}
	params.Set("q", query)
	var payload searchPayload
	if err := c.get(ctx, "/search", params, &payload); err != nil {
		return nil, err
	}
	matches := make([]marketdata.SymbolMatch, 0, len(payload.Result))
	for _, row := range payload.Result {
		matches = append(matches, marketdata.SymbolMatch{
			Symbol:    row.Symbol,
			Name:      row.Description,
			AssetType: row.Type,
		})
	}
	return matches, nil
}

// FetchDataset implements marketdata.Provider. Finnhub is quote/bar only in
// this deployment, so every dataset pull is reported unavailable.
func (c *Client) FetchDataset(ctx context.Context, dataset string) (*marketdata.ProviderResult, error) {
	return nil, &marketdata.ProviderError{
		Provider:  c.name,
		Op:        "dataset",
		Err:       fmt.Errorf("dataset %s: %w", dataset, marketdata.ErrProviderUnavailable),
		Transient: true,
	}
}

func isTransportError(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	var operr *net.OpError
	return errors.As(err, &operr)
}
