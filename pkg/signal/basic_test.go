package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apollo67-api/pkg/marketdata"
)

func barSeries(closes []float64) []marketdata.Bar {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]marketdata.Bar, len(closes))
	for i, close := range closes {
		bars[i] = marketdata.Bar{
			InstrumentID: "A67.TEST",
			Timeframe:    "1d",
			TsEvent:      start.Add(time.Duration(i) * 24 * time.Hour),
			Open:         close - 0.5,
			High:         close + 1,
			Low:          close - 1,
			Close:        close,
			Volume:       1000,
		}
	}
	return bars
}

func TestComputeNeutralWhenTooFewBars(t *testing.T) {
	sig := Compute(barSeries([]float64{100, 101, 102}))

	assert.Equal(t, 0, sig.Score)
	assert.Equal(t, "neutral", sig.Trend)
	assert.Equal(t, "neutral", sig.Momentum)
	assert.Zero(t, sig.Confidence)
	assert.Equal(t, 3, sig.Debug.BarsCount)
	require.NotNil(t, sig.Debug.LastClose)
	assert.Equal(t, 102.0, *sig.Debug.LastClose)
}

func TestComputeBullishUptrend(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	sig := Compute(barSeries(closes))

	assert.Equal(t, "bullish", sig.Trend)
	assert.Equal(t, "positive", sig.Momentum)
	// Steady gains push both components to the positive bound.
	assert.Equal(t, 100, sig.Score)
	assert.Equal(t, 1.0, sig.Confidence)
	require.NotNil(t, sig.Debug.RSI14)
	assert.Equal(t, 100.0, *sig.Debug.RSI14)
}

func TestComputeBearishDowntrend(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	sig := Compute(barSeries(closes))

	assert.Equal(t, "bearish", sig.Trend)
	assert.Equal(t, "negative", sig.Momentum)
	assert.Equal(t, -100, sig.Score)
	assert.Equal(t, 1.0, sig.Confidence)
}

func TestComputeDisagreementDampensConfidence(t *testing.T) {
	// Long decline followed by a sharp recovery: MA10 still under MA20 but
	// recent momentum is positive.
	closes := make([]float64, 0, 30)
	for i := 0; i < 25; i++ {
		closes = append(closes, 200-float64(i)*2)
	}
	for i := 0; i < 5; i++ {
		closes = append(closes, 152+float64(i)*0.3)
	}
	sig := Compute(barSeries(closes))

	assert.Equal(t, "bearish", sig.Trend)
	assert.Equal(t, "positive", sig.Momentum)
	maxConfidence := sig.Debug.ClampedScore
	if maxConfidence < 0 {
		maxConfidence = -maxConfidence
	}
	assert.InDelta(t, maxConfidence/100.0*0.6, sig.Confidence, 0.011)
}

func TestComputeSortsBarsByEventTime(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := barSeries(closes)
	// Shuffle deterministically.
	for i := 0; i < len(bars)-1; i += 2 {
		bars[i], bars[i+1] = bars[i+1], bars[i]
	}
	sig := Compute(bars)

	require.NotNil(t, sig.Debug.LastClose)
	assert.Equal(t, 129.0, *sig.Debug.LastClose)
	assert.Equal(t, "bullish", sig.Trend)
}
