// Package twelvedata adapts the Twelve Data REST API to the canonical
// marketdata.Provider interface.
package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"apollo67-api/pkg/marketdata"
)

const (
	defaultBaseURL     = "https://api.twelvedata.com"
	defaultHTTPTimeout = 10 * time.Second
	defaultInterval    = "1day"
	datasetOutputSize  = 30
)

func init() {
	marketdata.RegisterProvider("twelvedata", func(name string, cfg *marketdata.ProviderConfig) (marketdata.Provider, error) {
		if cfg.APIKey == "" {
			return nil, errors.New("twelvedata: api_key is required")
		}
		opts := []Option{WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if len(cfg.Universe) > 0 {
			opts = append(opts, WithUniverse(cfg.Universe, cfg.Interval))
		}
		return NewClient(name, opts...), nil
	})
}

// Client calls the Twelve Data REST endpoints.
type Client struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client

	universe []string
	interval string
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

// WithHTTPClient injects a custom http.Client (used by recorded tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUniverse sets the symbols served for price_bar dataset pulls.
func WithUniverse(symbols []string, interval string) Option {
	return func(c *Client) {
		c.universe = symbols
		if interval != "" {
			c.interval = interval
		}
	}
}

// NewClient constructs a Twelve Data adapter.
func NewClient(name string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		interval:   defaultInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements marketdata.Provider.
func (c *Client) Name() string { return c.name }

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (map[string]json.RawMessage, error) {
	params.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &marketdata.ProviderError{Provider: c.name, Op: endpoint, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &marketdata.ProviderError{Provider: c.name, Op: endpoint, Err: err, Transient: isTransportError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, &marketdata.ProviderError{
			Provider:  c.name,
			Op:        endpoint,
			Err:       fmt.Errorf("unexpected status %d", resp.StatusCode),
			Transient: transient,
		}
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &marketdata.ProviderError{Provider: c.name, Op: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}

	// Twelve Data reports errors 200 OK with {"status":"error",...}.
	if raw, ok := payload["status"]; ok {
		var status string
		if json.Unmarshal(raw, &status) == nil && status == "error" {
			code, message := "unknown", "unknown error"
			if v, ok := payload["code"]; ok {
				var n json.Number
				if json.Unmarshal(v, &n) == nil {
					code = n.String()
				}
			}
			if v, ok := payload["message"]; ok {
				_ = json.Unmarshal(v, &message)
			}
			return nil, &marketdata.ProviderError{
				Provider:  c.name,
				Op:        endpoint,
				Err:       fmt.Errorf("api error %s: %s", code, message),
				Transient: code == "429",
			}
		}
	}
	return payload, nil
}

type quotePayload struct {
	Symbol    string      `json:"symbol"`
	Timestamp json.Number `json:"timestamp"`
	Datetime  string      `json:"datetime"`
	Close     string      `json:"close"`
	Price     string      `json:"price"`
	Bid       string      `json:"bid"`
	Ask       string      `json:"ask"`
}

// FetchQuote implements marketdata.Provider.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	symbol = marketdata.CanonicalSymbol(symbol)
	params := url.Values{}
	params.Set("symbol", symbol)
	payload, err := c.get(ctx, "/quote", params)
	if err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(payload)
	var q quotePayload
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, &marketdata.ProviderError{Provider: c.name, Op: "/quote", Err: fmt.Errorf("parse quote: %w", err)}
	}

	tsIngest := time.Now().UTC()
	tsEvent := tsIngest
	if s := q.Timestamp.String(); s != "" && s != "0" {
		if unix, err := q.Timestamp.Int64(); err == nil && unix > 0 {
			tsEvent = time.Unix(unix, 0).UTC()
		}
	} else if q.Datetime != "" {
		if parsed, err := parseEventTime(q.Datetime); err == nil {
			tsEvent = parsed
		}
	}

	last, err := firstFloat(q.Close, q.Price)
	if err != nil {
		return nil, &marketdata.ProviderError{Provider: c.name, Op: "/quote", Err: fmt.Errorf("parse quote price: %w", err)}
	}

	quote := &marketdata.Quote{
		InstrumentID:   fmt.Sprintf("TWELVEDATA:%s", symbol),
		TsEvent:        tsEvent,
		TsIngest:       tsIngest,
		Last:           last,
		Bid:            optionalFloat(q.Bid),
		Ask:            optionalFloat(q.Ask),
		SourceProvider: c.name,
		QualityFlags:   []string{},
	}
	quote.Normalize()
	return quote, nil
}

type seriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// FetchBars implements marketdata.Provider. Bars are requested oldest first
// in UTC.
func (c *Client) FetchBars(ctx context.Context, symbol, interval string, outputSize int) ([]marketdata.Bar, error) {
	symbol = marketdata.CanonicalSymbol(symbol)
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("outputsize", strconv.Itoa(outputSize))
	params.Set("timezone", "UTC")
	params.Set("order", "ASC")
	payload, err := c.get(ctx, "/time_series", params)
	if err != nil {
		return nil, err
	}

	var values []seriesValue
	if raw, ok := payload["values"]; ok {
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, &marketdata.ProviderError{Provider: c.name, Op: "/time_series", Err: fmt.Errorf("parse values: %w", err)}
		}
	}

	tsIngest := time.Now().UTC()
	bars := make([]marketdata.Bar, 0, len(values))
	for _, v := range values {
		tsEvent, err := parseEventTime(v.Datetime)
		if err != nil {
			return nil, &marketdata.ProviderError{Provider: c.name, Op: "/time_series", Err: err}
		}
		open, err1 := parseFloat(v.Open)
		high, err2 := parseFloat(v.High)
		low, err3 := parseFloat(v.Low)
		closePx, err4 := parseFloat(v.Close)
		volume := 0.0
		if v.Volume != "" {
			var err5 error
			if volume, err5 = parseFloat(v.Volume); err5 != nil {
				return nil, &marketdata.ProviderError{Provider: c.name, Op: "/time_series", Err: err5}
			}
		}
		if err := errors.Join(err1, err2, err3, err4); err != nil {
			return nil, &marketdata.ProviderError{Provider: c.name, Op: "/time_series", Err: err}
		}
		bar := marketdata.Bar{
			InstrumentID:   fmt.Sprintf("TWELVEDATA:%s", symbol),
			Timeframe:      interval,
			TsEvent:        tsEvent,
			TsIngest:       tsIngest,
			Open:           open,
			High:           high,
			Low:            low,
			Close:          closePx,
			Volume:         volume,
			SourceProvider: c.name,
			QualityFlags:   []string{},
		}
		bar.Normalize()
		bars = append(bars, bar)
	}
	return bars, nil
}

type symbolSearchPayload struct {
	Data []struct {
		Symbol         string `json:"symbol"`
		InstrumentName string `json:"instrument_name"`
		Exchange       string `json:"exchange"`
		InstrumentType string `json:"instrument_type"`
		Currency       string `json:"currency"`
		Country        string `json:"country"`
	} `json:"data"`
}

// SearchSymbols implements marketdata.Provider.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]marketdata.SymbolMatch, error) {
	params := url.Values{}
	params.Set("symbol", query)
	params.Set("outputsize", "30")
	payload, err := c.get(ctx, "/symbol_search", params)
	if err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(payload)
	var search symbolSearchPayload
	if err := json.Unmarshal(raw, &search); err != nil {
		return nil, &marketdata.ProviderError{Provider: c.name, Op: "/symbol_search", Err: fmt.Errorf("parse search: %w", err)}
	}
	matches := make([]marketdata.SymbolMatch, 0, len(search.Data))
	for _, row := range search.Data {
		matches = append(matches, marketdata.SymbolMatch{
			Symbol:    row.Symbol,
			Name:      row.InstrumentName,
			Exchange:  row.Exchange,
			AssetType: row.InstrumentType,
			Currency:  row.Currency,
			Country:   row.Country,
		})
	}
	return matches, nil
}

// FetchDataset implements marketdata.Provider. The vendor only carries price
// bars for the configured universe; every other dataset is reported
// unavailable so the hierarchy can fail over to a provider that has it.
func (c *Client) FetchDataset(ctx context.Context, dataset string) (*marketdata.ProviderResult, error) {
	if dataset != marketdata.DatasetPriceBar || len(c.universe) == 0 {
		return nil, &marketdata.ProviderError{
			Provider:  c.name,
			Op:        "dataset",
			Err:       fmt.Errorf("dataset %s: %w", dataset, marketdata.ErrProviderUnavailable),
			Transient: true,
		}
	}

	started := time.Now()
	records := make([]json.RawMessage, 0, len(c.universe))
	for _, symbol := range c.universe {
		bars, err := c.FetchBars(ctx, symbol, c.interval, datasetOutputSize)
		if err != nil {
			return nil, err
		}
		for _, bar := range bars {
			raw, err := json.Marshal(bar)
			if err != nil {
				return nil, &marketdata.ProviderError{Provider: c.name, Op: "dataset", Err: err}
			}
			records = append(records, raw)
		}
	}
	return &marketdata.ProviderResult{
		Dataset:   dataset,
		Provider:  c.name,
		Records:   records,
		LatencyMS: float64(time.Since(started)) / float64(time.Millisecond),
	}, nil
}

func parseEventTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing datetime in time_series value")
	}
	candidate := strings.Replace(raw, " ", "T", 1)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, candidate); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime %q", raw)
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func firstFloat(candidates ...string) (float64, error) {
	for _, raw := range candidates {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		return parseFloat(raw)
	}
	return 0, errors.New("no value present")
}

func optionalFloat(raw string) *float64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	v, err := parseFloat(raw)
	if err != nil {
		return nil
	}
	return &v
}

func isTransportError(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	var operr *net.OpError
	return errors.As(err, &operr)
}
