package marketdata

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeOK},
		{"unavailable sentinel", ErrProviderUnavailable, OutcomeTransient},
		{"wrapped sentinel", fmt.Errorf("vendor down: %w", ErrProviderUnavailable), OutcomeTransient},
		{"validation error", &ValidationError{Reason: "invalid OHLC"}, OutcomeTransient},
		{"transient provider error", &ProviderError{Provider: "td", Op: "quote", Err: errors.New("boom"), Transient: true}, OutcomeTransient},
		{"fatal provider error", &ProviderError{Provider: "td", Op: "quote", Err: errors.New("bad api key")}, OutcomeFatal},
		{"rate limit message", errors.New("HTTP 429 rate limit exceeded"), OutcomeTransient},
		{"timeout message", errors.New("request timed out"), OutcomeTransient},
		{"unknown fatal", errors.New("schema mismatch"), OutcomeFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &ProviderError{Provider: "finnhub", Op: "bars", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "finnhub")
	assert.Contains(t, err.Error(), "bars")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ok", OutcomeOK.String())
	assert.Equal(t, "transient", OutcomeTransient.String())
	assert.Equal(t, "fatal", OutcomeFatal.String())
}
