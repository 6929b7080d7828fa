package backtest

import "context"

// ThresholdStrategy buys when the close moves up more than ThresholdP
// percent versus the previous close and sells on the mirror move down.
type ThresholdStrategy struct {
	ThresholdP float64 // percent
	Qty        float64 // order size per trigger
}

func (s *ThresholdStrategy) Decide(ctx context.Context, closes []float64) ([]Order, error) {
	if len(closes) < 2 {
		return nil, nil
	}
	prev := closes[len(closes)-2]
	if prev == 0 {
		return nil, nil
	}
	px := closes[len(closes)-1]
	pct := (px - prev) / prev * 100
	if pct >= s.ThresholdP {
		return []Order{{IsBuy: true, Qty: s.Qty}}, nil
	}
	if pct <= -s.ThresholdP {
		return []Order{{IsBuy: false, Qty: s.Qty}}, nil
	}
	return nil, nil
}
