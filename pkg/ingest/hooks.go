package ingest

import (
	"fmt"

	"apollo67-api/pkg/marketdata"
)

// Default warning thresholds for the reference deployment.
const (
	DefaultDriftWarnRatio = 0.15
	DefaultSpikeWarnRatio = 0.12
)

// WarningCheck is a pluggable quality probe over a bar batch. Checks are
// registered at validator construction and never block persistence.
type WarningCheck interface {
	Check(bars []marketdata.Bar) []string
}

// DriftCheck warns when the last close drifts too far from the batch mean,
// which usually means a vendor served a stale or shifted series.
type DriftCheck struct {
	Threshold float64
}

// Check implements WarningCheck.
func (c DriftCheck) Check(bars []marketdata.Bar) []string {
	if len(bars) < 2 {
		return nil
	}
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultDriftWarnRatio
	}
	var sum float64
	for _, bar := range bars {
		sum += bar.Close
	}
	mean := sum / float64(len(bars))
	if mean <= 0 {
		return nil
	}
	latest := bars[len(bars)-1].Close
	drift := abs(latest-mean) / mean
	if drift >= threshold {
		return []string{fmt.Sprintf("price_drift_warning drift=%.4f", drift)}
	}
	return nil
}

// SpikeCheck warns on implausible intrabar moves.
type SpikeCheck struct {
	Threshold float64
}

// Check implements WarningCheck.
func (c SpikeCheck) Check(bars []marketdata.Bar) []string {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultSpikeWarnRatio
	}
	var warnings []string
	for _, bar := range bars {
		if bar.Open <= 0 {
			continue
		}
		spike := abs(bar.Close-bar.Open) / bar.Open
		if spike >= threshold {
			warnings = append(warnings, fmt.Sprintf("intrabar_spike_warning instrument=%s spike=%.4f", bar.InstrumentID, spike))
		}
	}
	return warnings
}

// DefaultChecks returns the standard drift and spike probes.
func DefaultChecks(driftThreshold, spikeThreshold float64) []WarningCheck {
	return []WarningCheck{
		DriftCheck{Threshold: driftThreshold},
		SpikeCheck{Threshold: spikeThreshold},
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
