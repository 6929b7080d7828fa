package ingest

import (
	"sync"

	"github.com/zeromicro/go-zero/core/metric"
)

// Counter names incremented by the pipeline.
const (
	CounterIngestionSuccess   = "ingestion_success_total"
	CounterIngestionFail      = "ingestion_fail_total"
	CounterFailoverEvents     = "failover_events_total"
	CounterDatasetRuns        = "ingestion_dataset_runs_total"
	CounterFreshnessBreach    = "freshness_breach_total"
	CounterCompletenessBreach = "completeness_breach_total"
	CounterWarningValidation  = "warning_validation_total"
	CounterMissingBars        = "missing_bars_total"
)

var promCounter = metric.NewCounterVec(&metric.CounterVecOpts{
	Namespace: "apollo67",
	Subsystem: "ingestion",
	Name:      "events_total",
	Help:      "Ingestion pipeline counter events.",
	Labels:    []string{"counter"},
})

// Metrics is a process-local counter registry. Every increment is mirrored
// to the prometheus counter vector; the local map exists so callers can
// return an exact snapshot in ingest responses.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMetrics constructs an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]int64)}
}

// Inc adds one to the named counter.
func (m *Metrics) Inc(name string) { m.Add(name, 1) }

// Add adds n to the named counter.
func (m *Metrics) Add(name string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.mu.Lock()
	m.counters[name] += n
	m.mu.Unlock()
	promCounter.Add(float64(n), name)
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make(map[string]int64, len(m.counters))
	for name, value := range m.counters {
		snapshot[name] = value
	}
	return snapshot
}
