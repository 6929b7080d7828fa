package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"apollo67-api/pkg/marketdata"

	"github.com/stretchr/testify/assert"
)

func TestBacktest_Threshold(t *testing.T) {
	ctx := context.Background()

	feeder := NewPriceFeeder("AAPL", []float64{100, 101, 103, 102, 99, 100})
	strat := &ThresholdStrategy{ThresholdP: 1.0, Qty: 1}

	e := &Engine{Feeder: feeder, Strategy: strat, Symbol: "AAPL", FeeBps: 2.0, SlippageBps: 1.0, InitialEquity: 100000}
	res, err := e.Run(ctx)
	assert.NoError(t, err, "Engine.Run should not error")
	assert.NotNil(t, res, "result should not be nil")

	assert.Equal(t, 6, res.Steps, "should run for 6 steps")
	assert.Greater(t, res.OrdersSent, 0, "should send some orders")
	assert.Len(t, res.EquityCurve, res.Steps, "equity curve length should match steps")

	// MaxDDPct, Sharpe are scenario-specific but should be finite numbers
	assert.False(t, res.MaxDDPct < 0 || math.IsNaN(res.MaxDDPct), "max drawdown should be non-negative and not NaN")
	assert.False(t, math.IsNaN(res.Sharpe), "sharpe ratio should not be NaN")
}

func TestBacktest_RoundTripPNL(t *testing.T) {
	ctx := context.Background()

	feeder := NewPriceFeeder("AAPL", []float64{100, 110, 90})
	strat := &ThresholdStrategy{ThresholdP: 5.0, Qty: 1}

	e := &Engine{Feeder: feeder, Strategy: strat, Symbol: "AAPL", InitialEquity: 1000}
	res, err := e.Run(ctx)
	assert.NoError(t, err, "Engine.Run should not error")

	// buy at 110, sell at 90 closes the round trip for -20
	assert.Equal(t, 2, res.OrdersSent, "both threshold crossings should fire")
	assert.Equal(t, 1, res.Trades, "one round trip completed")
	assert.Equal(t, 0, res.Wins, "losing trade")
	assert.InDelta(t, -20, res.RealizedPNL, 1e-9, "realized loss of 20")
	assert.InDelta(t, -20, res.TotalPNL, 1e-9, "no open position remains")
}

func TestBacktest_SignalStrategy(t *testing.T) {
	ctx := context.Background()

	closes := make([]float64, 0, 40)
	px := 100.0
	for i := 0; i < 40; i++ {
		closes = append(closes, px)
		px *= 1.01
	}
	feeder := NewPriceFeeder("NVDA", closes)
	strat := &SignalStrategy{EntryScore: 67, Window: 30, Qty: 1}

	e := &Engine{Feeder: feeder, Strategy: strat, Symbol: "NVDA", InitialEquity: 10000}
	res, err := e.Run(ctx)
	assert.NoError(t, err, "Engine.Run should not error")

	// a steady uptrend should open exactly one long and hold it
	assert.Equal(t, 1, res.OrdersSent, "side transition should fire once")
	assert.Equal(t, 0, res.Trades, "no round trip while holding")
	assert.Greater(t, res.UnrealPNL, 0.0, "mark-to-market gain on the open long")
}

func TestBarFeeder_SortsByEventTime(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := []marketdata.Bar{
		{TsEvent: base.AddDate(0, 0, 2), Close: 103},
		{TsEvent: base, Close: 101},
		{TsEvent: base.AddDate(0, 0, 1), Close: 102},
	}
	feeder := NewBarFeeder("MSFT", bars)

	var got []float64
	for {
		px, ok, err := feeder.Next(ctx, "MSFT")
		assert.NoError(t, err, "Next should not error")
		if !ok {
			break
		}
		got = append(got, px)
	}
	assert.Equal(t, []float64{101, 102, 103}, got, "closes should replay in event order")
}
