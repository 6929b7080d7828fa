// Package stub is a deterministic in-process data vendor used by tests and
// by deployments that run the ingestion pipeline without live vendor keys.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"apollo67-api/pkg/marketdata"
)

const stubLatencyMS = 12.5

func init() {
	marketdata.RegisterProvider("stub", func(name string, cfg *marketdata.ProviderConfig) (marketdata.Provider, error) {
		return New(name, cfg.FailDatasets...), nil
	})
}

// Provider serves fixed, well-formed records for every dataset. Datasets in
// the fail set are refused with ErrProviderUnavailable, which makes the stub
// a drop-in failure injector for hierarchy tests.
type Provider struct {
	name         string
	failDatasets map[string]struct{}
	now          func() time.Time
}

// Option configures a stub Provider.
type Option func(*Provider)

// WithClock overrides the record timestamp clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// New constructs a stub provider that refuses the named datasets.
func New(name string, failDatasets ...string) *Provider {
	fails := make(map[string]struct{}, len(failDatasets))
	for _, dataset := range failDatasets {
		fails[dataset] = struct{}{}
	}
	return &Provider{name: name, failDatasets: fails, now: time.Now}
}

// Configure applies options after construction.
func (p *Provider) Configure(opts ...Option) *Provider {
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements marketdata.Provider.
func (p *Provider) Name() string { return p.name }

// FetchQuote implements marketdata.Provider.
func (p *Provider) FetchQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	symbol = marketdata.CanonicalSymbol(symbol)
	now := p.now().UTC()
	bid, ask := 182.30, 182.40
	quote := &marketdata.Quote{
		InstrumentID:   fmt.Sprintf("A67.%s", symbol),
		TsEvent:        now.Add(-time.Second),
		TsIngest:       now,
		Last:           182.36,
		Bid:            &bid,
		Ask:            &ask,
		SourceProvider: p.name,
		QualityFlags:   []string{},
	}
	return quote, nil
}

// FetchBars implements marketdata.Provider. Bars walk a gentle ramp so
// signal computations over stub data stay deterministic.
func (p *Provider) FetchBars(ctx context.Context, symbol, interval string, outputSize int) ([]marketdata.Bar, error) {
	symbol = marketdata.CanonicalSymbol(symbol)
	if outputSize <= 0 {
		outputSize = 30
	}
	now := p.now().UTC()
	bars := make([]marketdata.Bar, 0, outputSize)
	for i := 0; i < outputSize; i++ {
		base := 180.0 + float64(i)*0.25
		offset := time.Duration(outputSize-i) * time.Minute
		bars = append(bars, marketdata.Bar{
			InstrumentID:   fmt.Sprintf("A67.%s", symbol),
			Timeframe:      interval,
			TsEvent:        now.Add(-offset),
			TsIngest:       now,
			Open:           base,
			High:           base + 0.40,
			Low:            base - 0.20,
			Close:          base + 0.21,
			Volume:         15000 + float64(i)*10,
			SourceProvider: p.name,
			QualityFlags:   []string{},
		})
	}
	return bars, nil
}

// SearchSymbols implements marketdata.Provider.
func (p *Provider) SearchSymbols(ctx context.Context, query string) ([]marketdata.SymbolMatch, error) {
	return []marketdata.SymbolMatch{
		{Symbol: marketdata.CanonicalSymbol(query), Name: "Stubbed Instrument", Exchange: "NASDAQ", AssetType: "equity", Currency: "USD"},
	}, nil
}

// FetchDataset implements marketdata.Provider.
func (p *Provider) FetchDataset(ctx context.Context, dataset string) (*marketdata.ProviderResult, error) {
	if _, fail := p.failDatasets[dataset]; fail {
		return nil, &marketdata.ProviderError{
			Provider:  p.name,
			Op:        "dataset",
			Err:       fmt.Errorf("%s unavailable for dataset=%s: %w", p.name, dataset, marketdata.ErrProviderUnavailable),
			Transient: true,
		}
	}

	now := p.now().UTC()
	var records []any
	switch dataset {
	case marketdata.DatasetInstrument:
		records = []any{marketdata.Instrument{
			InstrumentID:   "A67.AAPL",
			Symbol:         "AAPL",
			Venue:          "NASDAQ",
			AssetType:      "equity",
			Currency:       "USD",
			IsTradable:     true,
			EffectiveFrom:  now,
			SourceProvider: p.name,
		}}
	case marketdata.DatasetPriceBar:
		records = []any{marketdata.Bar{
			InstrumentID:   "A67.AAPL",
			Timeframe:      "1m",
			TsEvent:        now.Add(-time.Minute),
			TsIngest:       now,
			Open:           182.15,
			High:           182.42,
			Low:            181.98,
			Close:          182.36,
			Volume:         15230,
			SourceProvider: p.name,
			QualityFlags:   []string{},
		}}
	case marketdata.DatasetCorporateAction:
		records = []any{marketdata.CorporateAction{
			InstrumentID:   "A67.AAPL",
			ActionType:     "split",
			EffectiveDate:  now.Format("2006-01-02"),
			FactorOrAmount: 1.0,
			SourceProvider: p.name,
		}}
	case marketdata.DatasetSessionCalendar:
		records = []any{marketdata.SessionCalendar{
			Venue:          "NASDAQ",
			SessionDate:    now.Format("2006-01-02"),
			IsOpen:         true,
			SessionStart:   "09:30",
			SessionEnd:     "16:00",
			Timezone:       "America/New_York",
			SourceProvider: p.name,
		}}
	}

	raws := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, &marketdata.ProviderError{Provider: p.name, Op: "dataset", Err: err}
		}
		raws = append(raws, raw)
	}
	return &marketdata.ProviderResult{
		Dataset:   dataset,
		Provider:  p.name,
		Records:   raws,
		LatencyMS: stubLatencyMS,
	}, nil
}
