package backtest

import (
	"context"
	"time"

	"apollo67-api/pkg/marketdata"
	"apollo67-api/pkg/signal"
)

// SignalStrategy scores a rolling close window with the basic trend and
// momentum signal and trades on threshold crossings. It acts only when
// the side changes, so a sustained score does not stack orders.
type SignalStrategy struct {
	EntryScore int     // absolute score required to act, e.g. 67
	Window     int     // closes scored per step, defaults to 60
	Qty        float64 // order size per trigger

	lastSide int // -1 short, 0 flat, 1 long
}

func (s *SignalStrategy) Decide(ctx context.Context, closes []float64) ([]Order, error) {
	window := s.Window
	if window <= 0 {
		window = 60
	}
	if len(closes) > window {
		closes = closes[len(closes)-window:]
	}
	sig := signal.Compute(syntheticBars(closes))

	side := 0
	if sig.Score >= s.EntryScore {
		side = 1
	} else if sig.Score <= -s.EntryScore {
		side = -1
	}
	if side == 0 || side == s.lastSide {
		return nil, nil
	}
	s.lastSide = side
	return []Order{{IsBuy: side > 0, Qty: s.Qty}}, nil
}

// syntheticBars wraps a close series in daily bars so it can be scored.
func syntheticBars(closes []float64) []marketdata.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]marketdata.Bar, len(closes))
	for i, px := range closes {
		bars[i] = marketdata.Bar{
			Timeframe: "1day",
			TsEvent:   base.AddDate(0, 0, i),
			Open:      px,
			High:      px,
			Low:       px,
			Close:     px,
		}
	}
	return bars
}
