package marketdata

import (
	"fmt"
	"time"
)

// ValidateBars applies the structural checks every bar batch must satisfy
// before it may be cached or served: UTC-aware timestamps, non-negative
// numerics, consistent OHLC bounds and no duplicate (instrument, ts_event)
// pairs.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return &ValidationError{Reason: "no bars returned"}
	}

	seen := make(map[string]struct{}, len(bars))
	for _, bar := range bars {
		if bar.TsEvent.IsZero() {
			return &ValidationError{Reason: fmt.Sprintf("bar %s has no event timestamp", bar.InstrumentID)}
		}
		if bar.TsIngest.IsZero() {
			return &ValidationError{Reason: fmt.Sprintf("bar %s has no ingest timestamp", bar.InstrumentID)}
		}
		if bar.Open < 0 || bar.High < 0 || bar.Low < 0 || bar.Close < 0 || bar.Volume < 0 {
			return &ValidationError{Reason: "negative values are not allowed"}
		}
		if bar.High < max3(bar.Open, bar.Close, bar.Low) {
			return &ValidationError{Reason: "invalid OHLC: high bound"}
		}
		if bar.Low > min3(bar.Open, bar.Close, bar.High) {
			return &ValidationError{Reason: "invalid OHLC: low bound"}
		}

		key := fmt.Sprintf("%s:%s", bar.InstrumentID, bar.TsEvent.UTC().Format(time.RFC3339Nano))
		if _, dup := seen[key]; dup {
			return &ValidationError{Reason: "duplicate bars in response"}
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ValidateQuote checks a quote against the structural rules and the supplied
// freshness SLA, evaluated at time.Now.
func ValidateQuote(quote Quote, freshness time.Duration) error {
	return ValidateQuoteAt(quote, freshness, time.Now())
}

// ValidateQuoteAt is ValidateQuote with an explicit evaluation time. A quote
// whose age equals the SLA exactly still passes; one instant past it fails.
func ValidateQuoteAt(quote Quote, freshness time.Duration, now time.Time) error {
	if quote.TsEvent.IsZero() {
		return &ValidationError{Reason: "quote has no event timestamp"}
	}
	if quote.TsIngest.IsZero() {
		return &ValidationError{Reason: "quote has no ingest timestamp"}
	}
	if quote.Last < 0 || (quote.Bid != nil && *quote.Bid < 0) || (quote.Ask != nil && *quote.Ask < 0) {
		return &ValidationError{Reason: "quote has negative values"}
	}
	if age := now.Sub(quote.TsIngest); age > freshness {
		return &ValidationError{Reason: fmt.Sprintf("quote freshness SLA breach: age=%.2fs", age.Seconds())}
	}
	return nil
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
