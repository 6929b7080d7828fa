package marketdata

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Dataset names served by providers and understood by the ingestion pipeline.
const (
	DatasetInstrument      = "instrument"
	DatasetPriceBar        = "price_bar"
	DatasetCorporateAction = "corporate_action"
	DatasetSessionCalendar = "session_calendar"
)

// Bar is one normalized OHLCV observation.
type Bar struct {
	InstrumentID   string    `json:"instrument_id"`
	Timeframe      string    `json:"timeframe"`
	TsEvent        time.Time `json:"ts_event"`
	TsIngest       time.Time `json:"ts_ingest"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Close          float64   `json:"close"`
	Volume         float64   `json:"volume"`
	SourceProvider string    `json:"source_provider"`
	QualityFlags   []string  `json:"quality_flags"`
}

// Key returns the natural key used for duplicate detection and upserts.
func (b Bar) Key() string {
	return fmt.Sprintf("%s:%s:%s", b.InstrumentID, b.Timeframe, b.TsEvent.UTC().Format(time.RFC3339))
}

// Normalize coerces timestamps to UTC and defaults the timeframe.
func (b *Bar) Normalize() {
	b.TsEvent = b.TsEvent.UTC()
	b.TsIngest = b.TsIngest.UTC()
	if b.Timeframe == "" {
		b.Timeframe = "1m"
	}
	if b.QualityFlags == nil {
		b.QualityFlags = []string{}
	}
}

// Quote is the latest trade snapshot for an instrument.
type Quote struct {
	InstrumentID   string    `json:"instrument_id"`
	TsEvent        time.Time `json:"ts_event"`
	TsIngest       time.Time `json:"ts_ingest"`
	Last           float64   `json:"last"`
	Bid            *float64  `json:"bid,omitempty"`
	Ask            *float64  `json:"ask,omitempty"`
	SourceProvider string    `json:"source_provider"`
	QualityFlags   []string  `json:"quality_flags"`
}

// Normalize coerces timestamps to UTC.
func (q *Quote) Normalize() {
	q.TsEvent = q.TsEvent.UTC()
	q.TsIngest = q.TsIngest.UTC()
	if q.QualityFlags == nil {
		q.QualityFlags = []string{}
	}
}

// Instrument is a tradable security reference record.
type Instrument struct {
	InstrumentID   string     `json:"instrument_id"`
	Symbol         string     `json:"symbol"`
	Venue          string     `json:"venue"`
	AssetType      string     `json:"asset_type"`
	Currency       string     `json:"currency"`
	IsTradable     bool       `json:"is_tradable"`
	EffectiveFrom  time.Time  `json:"effective_from"`
	EffectiveTo    *time.Time `json:"effective_to,omitempty"`
	SourceProvider string     `json:"source_provider"`
}

// Normalize coerces timestamps to UTC.
func (i *Instrument) Normalize() {
	i.EffectiveFrom = i.EffectiveFrom.UTC()
	if i.EffectiveTo != nil {
		to := i.EffectiveTo.UTC()
		i.EffectiveTo = &to
	}
}

// CorporateAction is a split, dividend or comparable corporate event.
type CorporateAction struct {
	InstrumentID   string  `json:"instrument_id"`
	ActionType     string  `json:"action_type"`
	EffectiveDate  string  `json:"effective_date"` // YYYY-MM-DD
	FactorOrAmount float64 `json:"factor_or_amount"`
	SourceProvider string  `json:"source_provider"`
}

// Key returns the natural key (instrument, type, date).
func (a CorporateAction) Key() string {
	return fmt.Sprintf("%s:%s:%s", a.InstrumentID, a.ActionType, a.EffectiveDate)
}

// SessionCalendar is one trading-session window for a venue.
type SessionCalendar struct {
	Venue          string `json:"venue"`
	SessionDate    string `json:"session_date"` // YYYY-MM-DD
	IsOpen         bool   `json:"is_open"`
	SessionStart   string `json:"session_start"` // HH:MM venue-local
	SessionEnd     string `json:"session_end"`
	Timezone       string `json:"timezone"`
	SourceProvider string `json:"source_provider"`
}

// Key returns the natural key (venue, date).
func (s SessionCalendar) Key() string {
	return fmt.Sprintf("%s:%s", s.Venue, s.SessionDate)
}

// SymbolMatch is one hit from a provider symbol search.
type SymbolMatch struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
	AssetType string `json:"asset_type,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Country   string `json:"country,omitempty"`
}

// ProviderResult is the raw output of one adapter dataset call. It is
// ephemeral: the records are captured verbatim for audit and then parsed
// into canonical types, after which the result is discarded.
type ProviderResult struct {
	Dataset      string            `json:"dataset"`
	Provider     string            `json:"provider"`
	Records      []json.RawMessage `json:"records"`
	LatencyMS    float64           `json:"latency_ms"`
	UsedFallback bool              `json:"used_fallback"`
}

// CanonicalSymbol trims and upper-cases a user-supplied symbol.
func CanonicalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
