package types

import (
	"apollo67-api/pkg/ingest"
	"apollo67-api/pkg/marketdata"
	"apollo67-api/pkg/signal"
)

// MaxBatchSymbols caps the size of comma-separated batch requests.
const MaxBatchSymbols = 25

type HealthzResponse struct {
	Status   string `json:"status"`
	Env      string `json:"env"`
	Database string `json:"database"`
}

type LockedParameters struct {
	LockEnabled               bool    `json:"lock_enabled"`
	OverrideEnabled           bool    `json:"override_enabled"`
	EisMinEntryScore          int     `json:"eis_min_entry_score"`
	PortfolioHeatHardCap      float64 `json:"portfolio_heat_hard_cap"`
	DrawdownHaltPct           float64 `json:"drawdown_halt_pct"`
	RotationAdvantageRatioMin float64 `json:"rotation_advantage_ratio_min"`
	CpasTargetUsd             float64 `json:"cpas_target_usd"`
}

type ConfigResponse struct {
	AppEnv               string           `json:"app_env"`
	DatabaseURL          string           `json:"database_url"`
	DataProviderPrimary  string           `json:"data_provider_primary"`
	DataProviderFallback string           `json:"data_provider_fallback"`
	FreshnessSLASeconds  int              `json:"data_freshness_sla_seconds"`
	CompletenessMinRatio float64          `json:"data_completeness_min_ratio"`
	CalendarSessionStart string           `json:"calendar_session_start"`
	CalendarSessionEnd   string           `json:"calendar_session_end"`
	Locked               LockedParameters `json:"locked_parameters"`
}

type SearchRequest struct {
	Query string `form:"q"`
}

type SearchResponse struct {
	Provider string                   `json:"provider"`
	Results  []marketdata.SymbolMatch `json:"results"`
}

type BarsRequest struct {
	Symbol     string `form:"symbol"`
	Interval   string `form:"interval,default=1day"`
	OutputSize int    `form:"outputsize,default=500"`
}

type BarsResponse struct {
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Provider string           `json:"provider"`
	Bars     []marketdata.Bar `json:"bars"`
}

type QuoteRequest struct {
	Symbol string `form:"symbol"`
}

type QuoteResponse struct {
	Symbol   string           `json:"symbol"`
	Provider string           `json:"provider"`
	Quote    marketdata.Quote `json:"quote"`
}

type BatchRequest struct {
	Symbols string `form:"symbols"`
}

// QuoteOutcome is one symbol's result in a batch response. Exactly one of
// Quote and Error is set.
type QuoteOutcome struct {
	Provider string            `json:"provider,omitempty"`
	Quote    *marketdata.Quote `json:"quote,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type BatchQuotesResponse struct {
	Results map[string]QuoteOutcome `json:"results"`
}

type SignalRequest struct {
	Symbol string `form:"symbol"`
}

type SignalResponse struct {
	Symbol string        `json:"symbol"`
	Signal signal.Signal `json:"signal"`
}

// SignalOutcome is one symbol's result in a batch signal response.
type SignalOutcome struct {
	Signal *signal.Signal `json:"signal,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type BatchSignalsResponse struct {
	Results map[string]SignalOutcome `json:"results"`
}

type IngestRequest struct {
	Dataset       string `json:"dataset"`
	ExpectedCount int    `json:"expected_count,optional"`
}

type IngestResponse struct {
	Report         ingest.Report `json:"report"`
	CuratedVersion string        `json:"curated_version,omitempty"`
}

// DegradedResponse is the uniform body for provider and validation failures.
type DegradedResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider,omitempty"`
	Message  string `json:"message"`
}

// ErrorResponse is the compact error body used by signal endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
