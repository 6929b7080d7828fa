package backtest

import "math"

// portfolio tracks a single-instrument position with fees and mark-to-market.
type portfolio struct {
	cash        float64
	pos         float64 // signed size; >0 long, <0 short
	avgCost     float64 // average entry price of the open position
	realized   float64
	unrealized float64
	feeBps     float64
}

// apply simulates a fill at execPx for qty units. It returns the realized
// PnL of any closed portion, the fee charged, and whether a round trip
// completed (some position was closed).
func (p *portfolio) apply(isBuy bool, execPx, qty float64) (realized, fee float64, tradeCompleted bool) {
	if qty <= 0 || execPx <= 0 {
		return 0, 0, false
	}
	dir := -1.0
	if isBuy {
		dir = 1.0
	}
	fee = p.fee(execPx, qty)
	p.cash -= fee

	if p.pos == 0 || math.Signbit(p.pos) == math.Signbit(dir) {
		p.extend(dir, execPx, qty)
		return 0, fee, false
	}

	closeQty := math.Min(math.Abs(p.pos), qty)
	realized = p.close(execPx, closeQty)
	if remaining := qty - closeQty; remaining > 0 {
		// crossed through flat, flip into the new side
		p.pos = dir * remaining
		p.avgCost = execPx
	}
	return realized, fee, true
}

// extend grows the position in its current direction, re-averaging cost.
func (p *portfolio) extend(dir, execPx, qty float64) {
	held := math.Abs(p.pos)
	if held == 0 {
		p.avgCost = execPx
	} else {
		p.avgCost = (p.avgCost*held + execPx*qty) / (held + qty)
	}
	p.pos += dir * qty
}

// close unwinds closeQty units against the open position and books PnL.
func (p *portfolio) close(execPx, closeQty float64) float64 {
	var pnl float64
	if p.pos > 0 {
		pnl = (execPx - p.avgCost) * closeQty
		p.pos -= closeQty
	} else {
		pnl = (p.avgCost - execPx) * closeQty
		p.pos += closeQty
	}
	if p.pos == 0 {
		p.avgCost = 0
	}
	p.cash += pnl
	p.realized += pnl
	return pnl
}

func (p *portfolio) equity(lastPx float64) float64 {
	p.unrealized = 0
	if p.pos > 0 {
		p.unrealized = (lastPx - p.avgCost) * p.pos
	} else if p.pos < 0 {
		p.unrealized = (p.avgCost - lastPx) * -p.pos
	}
	return p.cash + p.unrealized
}

func (p *portfolio) fee(px, qty float64) float64 {
	if p.feeBps == 0 {
		return 0
	}
	return px * qty * (p.feeBps / 10000.0)
}
