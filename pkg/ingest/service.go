package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/pkg/journal"
	"apollo67-api/pkg/marketdata"
)

// Repository is the persistence boundary for canonical records. The concrete
// implementation upserts by each entity's natural key; storage enforces the
// same uniqueness constraints the validator checks.
type Repository interface {
	CaptureRawPayload(ctx context.Context, dataset, provider string, payload []json.RawMessage) (int64, error)
	PersistInstruments(ctx context.Context, records []marketdata.Instrument) (int, error)
	PersistPriceBars(ctx context.Context, records []marketdata.Bar) (int, error)
	PersistCorporateActions(ctx context.Context, records []marketdata.CorporateAction) (int, error)
	PersistSessionCalendars(ctx context.Context, records []marketdata.SessionCalendar) (int, error)
	MarkCuratedDataset(ctx context.Context, name, version, status string, payload map[string]any) (int64, error)
}

// Report summarises one ingestion run.
type Report struct {
	Dataset           string           `json:"dataset"`
	Provider          string           `json:"provider"`
	UsedFallback      bool             `json:"used_fallback"`
	Records           int              `json:"records"`
	Warnings          []string         `json:"warnings"`
	PipelineLatencyMS float64          `json:"pipeline_latency_ms"`
	Metrics           map[string]int64 `json:"metrics"`
}

// Service sequences an ingestion run: fetch, raw capture, parse, validate,
// persist, curated stamp, metrics. All collaborators are injected.
type Service struct {
	hierarchy *Hierarchy
	repo      Repository
	validator *Validator
	metrics   *Metrics
	journal   *journal.Writer
	now       func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithJournal enables file-journal audit records per run.
func WithJournal(w *journal.Writer) ServiceOption {
	return func(s *Service) { s.journal = w }
}

// WithServiceClock overrides the pipeline clock, for tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the ingestion pipeline.
func NewService(hierarchy *Hierarchy, repo Repository, validator *Validator, metrics *Metrics, opts ...ServiceOption) *Service {
	s := &Service{
		hierarchy: hierarchy,
		repo:      repo,
		validator: validator,
		metrics:   metrics,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestDataset runs the pipeline for one dataset. expectedCount <= 0 means
// the caller has no completeness expectation. The raw payload capture step
// always completes before validation, so audit data survives a rejected
// batch.
func (s *Service) IngestDataset(ctx context.Context, dataset string, expectedCount int) (*Report, error) {
	started := s.now()

	result, err := s.hierarchy.FetchWithFailover(ctx, dataset)
	if err != nil {
		s.writeJournal(dataset, nil, 0, nil, started, err)
		return nil, err
	}

	if _, err := s.repo.CaptureRawPayload(ctx, dataset, result.Provider, result.Records); err != nil {
		return nil, fmt.Errorf("capture raw payload: %w", err)
	}

	persisted := 0
	warnings := []string{}
	switch dataset {
	case marketdata.DatasetInstrument:
		records, err := parseRecords[marketdata.Instrument](result.Records)
		if err != nil {
			return nil, err
		}
		for i := range records {
			records[i].Normalize()
		}
		if _, err := s.validator.ValidateInstruments(records, expectedCount); err != nil {
			s.writeJournal(dataset, result, 0, nil, started, err)
			return nil, err
		}
		if persisted, err = s.repo.PersistInstruments(ctx, records); err != nil {
			return nil, err
		}

	case marketdata.DatasetPriceBar:
		records, err := parseRecords[marketdata.Bar](result.Records)
		if err != nil {
			return nil, err
		}
		for i := range records {
			records[i].Normalize()
		}
		validation, err := s.validator.ValidateBars(records, expectedCount)
		if err != nil {
			s.writeJournal(dataset, result, 0, nil, started, err)
			return nil, err
		}
		warnings = validation.Warnings
		if persisted, err = s.repo.PersistPriceBars(ctx, records); err != nil {
			return nil, err
		}
		s.recordMissingBars(ctx, len(records), expectedCount)

	case marketdata.DatasetCorporateAction:
		records, err := parseRecords[marketdata.CorporateAction](result.Records)
		if err != nil {
			return nil, err
		}
		if _, err := s.validator.ValidateCorporateActions(records, expectedCount); err != nil {
			s.writeJournal(dataset, result, 0, nil, started, err)
			return nil, err
		}
		if persisted, err = s.repo.PersistCorporateActions(ctx, records); err != nil {
			return nil, err
		}

	case marketdata.DatasetSessionCalendar:
		records, err := parseRecords[marketdata.SessionCalendar](result.Records)
		if err != nil {
			return nil, err
		}
		if _, err := s.validator.ValidateSessionCalendars(records, expectedCount); err != nil {
			s.writeJournal(dataset, result, 0, nil, started, err)
			return nil, err
		}
		if persisted, err = s.repo.PersistSessionCalendars(ctx, records); err != nil {
			return nil, err
		}

	default:
		// Wrong dataset names are a deployment configuration fault, never a
		// provider condition, so they must not trigger failover upstream.
		return nil, &BlockingError{Reason: fmt.Sprintf("unsupported dataset: %s", dataset)}
	}

	version := s.now().UTC().Format("20060102150405")
	if _, err := s.repo.MarkCuratedDataset(ctx, dataset, version, "placeholder", map[string]any{
		"source_provider": result.Provider,
		"records":         persisted,
	}); err != nil {
		return nil, fmt.Errorf("mark curated dataset: %w", err)
	}

	latencyMS := float64(s.now().Sub(started)) / float64(time.Millisecond)
	s.metrics.Inc(CounterDatasetRuns)
	logx.WithContext(ctx).Infow("ingestion complete",
		logx.Field("dataset", dataset),
		logx.Field("provider", result.Provider),
		logx.Field("used_fallback", result.UsedFallback),
		logx.Field("records", persisted),
		logx.Field("pipeline_latency_ms", latencyMS),
		logx.Field("warnings", warnings),
	)

	report := &Report{
		Dataset:           dataset,
		Provider:          result.Provider,
		UsedFallback:      result.UsedFallback,
		Records:           persisted,
		Warnings:          warnings,
		PipelineLatencyMS: latencyMS,
		Metrics:           s.metrics.Snapshot(),
	}
	s.writeJournal(dataset, result, persisted, warnings, started, nil)
	return report, nil
}

func (s *Service) recordMissingBars(ctx context.Context, actual, expected int) {
	if expected <= 0 || actual >= expected {
		return
	}
	missing := expected - actual
	s.metrics.Add(CounterMissingBars, int64(missing))
	logx.WithContext(ctx).Infow("missing bars detected",
		logx.Field("missing", missing),
		logx.Field("expected", expected),
		logx.Field("actual", actual),
	)
}

func (s *Service) writeJournal(dataset string, result *marketdata.ProviderResult, persisted int, warnings []string, started time.Time, runErr error) {
	if s.journal == nil {
		return
	}
	rec := &journal.RunRecord{
		Timestamp:         started,
		Dataset:           dataset,
		Records:           persisted,
		Warnings:          warnings,
		PipelineLatencyMS: float64(s.now().Sub(started)) / float64(time.Millisecond),
		Success:           runErr == nil,
		Metrics:           s.metrics.Snapshot(),
	}
	if result != nil {
		rec.Provider = result.Provider
		rec.UsedFallback = result.UsedFallback
	}
	if runErr != nil {
		rec.ErrorMessage = runErr.Error()
	}
	if _, err := s.journal.WriteRun(rec); err != nil {
		logx.Errorf("write ingest journal: %v", err)
	}
}

// parseRecords decodes raw provider records into the canonical type. A
// decode failure is an adapter contract breach, reported as a ProviderError.
func parseRecords[T any](raws []json.RawMessage) ([]T, error) {
	records := make([]T, 0, len(raws))
	for _, raw := range raws {
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, &marketdata.ProviderError{Provider: "parse", Op: "canonical decode", Err: err}
		}
		records = append(records, record)
	}
	return records, nil
}
