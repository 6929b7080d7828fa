// Package signal computes the basic moving-average/RSI composite score over
// canonical bar batches.
package signal

import (
	"math"
	"sort"
	"time"

	"apollo67-api/pkg/marketdata"
)

const (
	minBars   = 20
	rsiPeriod = 14
)

// Debug exposes the intermediate values behind a score for operator
// inspection.
type Debug struct {
	BarsCount    int        `json:"bars_count"`
	FirstTs      *time.Time `json:"first_ts,omitempty"`
	LastTs       *time.Time `json:"last_ts,omitempty"`
	FirstClose   *float64   `json:"first_close,omitempty"`
	LastClose    *float64   `json:"last_close,omitempty"`
	MA10         *float64   `json:"ma10,omitempty"`
	MA20         *float64   `json:"ma20,omitempty"`
	RSI14        *float64   `json:"rsi14,omitempty"`
	RawScore     float64    `json:"raw_score"`
	ClampedScore float64    `json:"clamped_score"`
}

// Signal is the computed composite.
type Signal struct {
	Score      int     `json:"score"`
	Trend      string  `json:"trend"`
	Momentum   string  `json:"momentum"`
	Confidence float64 `json:"confidence"`
	Debug      Debug   `json:"debug"`
}

// Compute derives a [-100, 100] score from a bar batch: a scaled MA10/MA20
// trend component plus a centred RSI14 momentum component. Fewer than 20
// bars yields a neutral zero-score signal.
func Compute(bars []marketdata.Bar) Signal {
	ordered := make([]marketdata.Bar, len(bars))
	copy(ordered, bars)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].TsEvent.Before(ordered[j].TsEvent)
	})

	debug := Debug{BarsCount: len(ordered)}
	if len(ordered) > 0 {
		first, last := ordered[0], ordered[len(ordered)-1]
		firstTs, lastTs := first.TsEvent, last.TsEvent
		firstClose, lastClose := first.Close, last.Close
		debug.FirstTs, debug.LastTs = &firstTs, &lastTs
		debug.FirstClose, debug.LastClose = &firstClose, &lastClose
	}

	if len(ordered) < minBars {
		return Signal{Trend: "neutral", Momentum: "neutral", Debug: debug}
	}

	closes := make([]float64, len(ordered))
	for i, bar := range ordered {
		closes[i] = bar.Close
	}

	ma10 := mean(closes[len(closes)-10:])
	ma20 := mean(closes[len(closes)-20:])
	trendPctDiff := 0.0
	if ma20 != 0 {
		trendPctDiff = (ma10 - ma20) / ma20
	}
	maComponent := trendPctDiff * 10000.0

	rsi14 := computeRSI(closes)
	rsiComponent := (rsi14 - 50.0) * 2.0

	rawScore := maComponent + rsiComponent
	clamped := math.Max(-100.0, math.Min(100.0, rawScore))
	score := int(math.Round(clamped))

	trend := "neutral"
	if trendPctDiff > 0 {
		trend = "bullish"
	} else if trendPctDiff < 0 {
		trend = "bearish"
	}
	momentum := "neutral"
	if rsi14 > 50 {
		momentum = "positive"
	} else if rsi14 < 50 {
		momentum = "negative"
	}

	agreement := (trend == "bullish" && momentum == "positive") ||
		(trend == "bearish" && momentum == "negative")
	agreementFactor := 0.6
	if agreement {
		agreementFactor = 1.0
	}
	confidence := math.Min(1.0, (math.Abs(clamped)/100.0)*agreementFactor)
	confidence = math.Round(confidence*100) / 100

	debug.MA10, debug.MA20, debug.RSI14 = &ma10, &ma20, &rsi14
	debug.RawScore = rawScore
	debug.ClampedScore = clamped

	return Signal{
		Score:      score,
		Trend:      trend,
		Momentum:   momentum,
		Confidence: confidence,
		Debug:      debug,
	}
}

// computeRSI is Wilder-smoothed RSI over the full close series. Series at or
// below the period length return the neutral 50.
func computeRSI(closes []float64) float64 {
	if len(closes) <= rsiPeriod {
		return 50.0
	}

	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gains = append(gains, math.Max(delta, 0))
		losses = append(losses, math.Abs(math.Min(delta, 0)))
	}

	avgGain := mean(gains[:rsiPeriod])
	avgLoss := mean(losses[:rsiPeriod])
	for i := rsiPeriod; i < len(gains); i++ {
		avgGain = (avgGain*(rsiPeriod-1) + gains[i]) / rsiPeriod
		avgLoss = (avgLoss*(rsiPeriod-1) + losses[i]) / rsiPeriod
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
