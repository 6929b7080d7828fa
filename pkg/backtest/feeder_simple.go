package backtest

import (
	"context"
	"sort"

	"apollo67-api/pkg/marketdata"
)

// PriceFeeder replays a static close series.
type PriceFeeder struct {
	symbol string
	closes []float64
	idx    int
}

func NewPriceFeeder(symbol string, closes []float64) *PriceFeeder {
	return &PriceFeeder{symbol: symbol, closes: closes}
}

func (f *PriceFeeder) Next(ctx context.Context, symbol string) (float64, bool, error) {
	if f.idx >= len(f.closes) {
		return 0, false, nil
	}
	px := f.closes[f.idx]
	f.idx++
	return px, true, nil
}

// BarFeeder replays canonical bars in event-time order, emitting closes.
type BarFeeder struct {
	symbol string
	bars   []marketdata.Bar
	idx    int
}

// NewBarFeeder copies and sorts bars ascending by event time.
func NewBarFeeder(symbol string, bars []marketdata.Bar) *BarFeeder {
	sorted := make([]marketdata.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TsEvent.Before(sorted[j].TsEvent)
	})
	return &BarFeeder{symbol: symbol, bars: sorted}
}

func (f *BarFeeder) Next(ctx context.Context, symbol string) (float64, bool, error) {
	if f.idx >= len(f.bars) {
		return 0, false, nil
	}
	px := f.bars[f.idx].Close
	f.idx++
	return px, true, nil
}
