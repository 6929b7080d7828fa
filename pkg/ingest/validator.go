package ingest

import (
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/pkg/marketdata"
)

// BlockingError reports canonical data that violates a hard quality rule.
// A blocking failure aborts persistence for the entire batch.
type BlockingError struct {
	Reason string
}

func (e *BlockingError) Error() string { return e.Reason }

func blockingf(format string, args ...any) *BlockingError {
	return &BlockingError{Reason: fmt.Sprintf(format, args...)}
}

// Params is the immutable quality-policy snapshot the validator runs with.
type Params struct {
	FreshnessSLA         time.Duration
	CompletenessMinRatio float64
}

// Result is the outcome of a successful validation pass. Empty warnings
// means a clean pass.
type Result struct {
	Warnings []string `json:"warnings"`
}

// Validator applies blocking rules and registered warning checks to
// canonical record batches. Policy parameters and checks are injected at
// construction; the validator keeps no hidden state.
type Validator struct {
	params  Params
	checks  []WarningCheck
	metrics *Metrics
	now     func() time.Time
}

// ValidatorOption customises a Validator.
type ValidatorOption func(*Validator)

// WithValidatorClock overrides the freshness clock, for tests.
func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewValidator constructs a validator over the given policy snapshot.
func NewValidator(params Params, checks []WarningCheck, metrics *Metrics, opts ...ValidatorOption) *Validator {
	v := &Validator{
		params:  params,
		checks:  checks,
		metrics: metrics,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateInstruments applies the blocking rules for instrument batches.
func (v *Validator) ValidateInstruments(records []marketdata.Instrument, expectedCount int) (*Result, error) {
	if len(records) == 0 {
		return nil, &BlockingError{Reason: "no instrument records received"}
	}
	if err := v.validateCompleteness(len(records), expectedCount); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if _, dup := seen[record.InstrumentID]; dup {
			return nil, blockingf("duplicate instrument_id: %s", record.InstrumentID)
		}
		seen[record.InstrumentID] = struct{}{}
	}
	return &Result{Warnings: []string{}}, nil
}

// ValidateBars applies the blocking rules for bar batches, then runs every
// registered warning check. A record whose ingest age exceeds the freshness
// SLA aborts the whole batch; warnings never do.
func (v *Validator) ValidateBars(records []marketdata.Bar, expectedCount int) (*Result, error) {
	if len(records) == 0 {
		return nil, &BlockingError{Reason: "no price bar records received"}
	}
	if err := v.validateCompleteness(len(records), expectedCount); err != nil {
		return nil, err
	}

	now := v.now()
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if age := now.Sub(record.TsIngest); age > v.params.FreshnessSLA {
			v.metrics.Inc(CounterFreshnessBreach)
			return nil, &BlockingError{Reason: fmt.Sprintf("freshness SLA breach for %s: %.2fs", record.InstrumentID, age.Seconds())}
		}
		if record.Open < 0 || record.High < 0 || record.Low < 0 || record.Close < 0 || record.Volume < 0 {
			return nil, blockingf("negative price/volume for %s", record.InstrumentID)
		}
		if record.High < maxOf(record.Open, record.Close, record.Low) {
			return nil, blockingf("invalid high bound for %s", record.InstrumentID)
		}
		if record.Low > minOf(record.Open, record.Close, record.High) {
			return nil, blockingf("invalid low bound for %s", record.InstrumentID)
		}
		key := record.Key()
		if _, dup := seen[key]; dup {
			return nil, blockingf("duplicate bar key: %s", key)
		}
		seen[key] = struct{}{}
	}

	warnings := []string{}
	for _, check := range v.checks {
		warnings = append(warnings, check.Check(records)...)
	}
	if len(warnings) > 0 {
		v.metrics.Add(CounterWarningValidation, int64(len(warnings)))
		logx.Infow("validation warning",
			logx.Field("dataset", marketdata.DatasetPriceBar),
			logx.Field("warnings", warnings),
		)
	}
	return &Result{Warnings: warnings}, nil
}

// ValidateCorporateActions applies the blocking rules for corporate action
// batches.
func (v *Validator) ValidateCorporateActions(records []marketdata.CorporateAction, expectedCount int) (*Result, error) {
	if len(records) == 0 {
		return nil, &BlockingError{Reason: "no corporate action records received"}
	}
	if err := v.validateCompleteness(len(records), expectedCount); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		key := record.Key()
		if _, dup := seen[key]; dup {
			return nil, blockingf("duplicate corporate action key: %s", key)
		}
		seen[key] = struct{}{}
	}
	return &Result{Warnings: []string{}}, nil
}

// ValidateSessionCalendars applies the blocking rules for session calendar
// batches. Session windows must start strictly before they end.
func (v *Validator) ValidateSessionCalendars(records []marketdata.SessionCalendar, expectedCount int) (*Result, error) {
	if len(records) == 0 {
		return nil, &BlockingError{Reason: "no session calendar records received"}
	}
	if err := v.validateCompleteness(len(records), expectedCount); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if record.SessionStart >= record.SessionEnd {
			return nil, &BlockingError{Reason: fmt.Sprintf("invalid session window for %s %s", record.Venue, record.SessionDate)}
		}
		key := record.Key()
		if _, dup := seen[key]; dup {
			return nil, blockingf("duplicate session calendar key: %s", key)
		}
		seen[key] = struct{}{}
	}
	return &Result{Warnings: []string{}}, nil
}

func (v *Validator) validateCompleteness(actual, expected int) error {
	if expected <= 0 {
		return nil
	}
	ratio := float64(actual) / float64(expected)
	if ratio < v.params.CompletenessMinRatio {
		v.metrics.Inc(CounterCompletenessBreach)
		return &BlockingError{Reason: fmt.Sprintf("completeness breach: actual=%d, expected=%d, ratio=%.4f", actual, expected, ratio)}
	}
	return nil
}

func maxOf(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func minOf(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
