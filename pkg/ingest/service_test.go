package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apollo67-api/pkg/marketdata"
	"apollo67-api/pkg/marketdata/providers/stub"
)

// memoryRepo records every persistence call in order.
type memoryRepo struct {
	calls       []string
	rawBatches  [][]json.RawMessage
	instruments []marketdata.Instrument
	bars        []marketdata.Bar
	actions     []marketdata.CorporateAction
	calendars   []marketdata.SessionCalendar
	curated     []curatedStamp
}

type curatedStamp struct {
	name, version, status string
	payload               map[string]any
}

func (r *memoryRepo) CaptureRawPayload(ctx context.Context, dataset, provider string, payload []json.RawMessage) (int64, error) {
	r.calls = append(r.calls, "capture")
	r.rawBatches = append(r.rawBatches, payload)
	return int64(len(r.rawBatches)), nil
}

func (r *memoryRepo) PersistInstruments(ctx context.Context, records []marketdata.Instrument) (int, error) {
	r.calls = append(r.calls, "instruments")
	r.instruments = append(r.instruments, records...)
	return len(records), nil
}

func (r *memoryRepo) PersistPriceBars(ctx context.Context, records []marketdata.Bar) (int, error) {
	r.calls = append(r.calls, "bars")
	r.bars = append(r.bars, records...)
	return len(records), nil
}

func (r *memoryRepo) PersistCorporateActions(ctx context.Context, records []marketdata.CorporateAction) (int, error) {
	r.calls = append(r.calls, "actions")
	r.actions = append(r.actions, records...)
	return len(records), nil
}

func (r *memoryRepo) PersistSessionCalendars(ctx context.Context, records []marketdata.SessionCalendar) (int, error) {
	r.calls = append(r.calls, "calendars")
	r.calendars = append(r.calendars, records...)
	return len(records), nil
}

func (r *memoryRepo) MarkCuratedDataset(ctx context.Context, name, version, status string, payload map[string]any) (int64, error) {
	r.calls = append(r.calls, "curated")
	r.curated = append(r.curated, curatedStamp{name: name, version: version, status: status, payload: payload})
	return int64(len(r.curated)), nil
}

func newTestService(primary, fallback marketdata.Provider, repo Repository, minRatio float64) (*Service, *Metrics) {
	metrics := NewMetrics()
	validator := NewValidator(
		Params{FreshnessSLA: 5 * time.Minute, CompletenessMinRatio: minRatio},
		DefaultChecks(DefaultDriftWarnRatio, DefaultSpikeWarnRatio),
		metrics,
	)
	svc := NewService(NewHierarchy(primary, fallback, metrics), repo, validator, metrics)
	return svc, metrics
}

func TestIngestDataset_PriceBarsEndToEnd(t *testing.T) {
	repo := &memoryRepo{}
	svc, _ := newTestService(stub.New("alpha"), stub.New("beta"), repo, 0.95)

	report, err := svc.IngestDataset(context.Background(), marketdata.DatasetPriceBar, 1)
	require.NoError(t, err)

	assert.Equal(t, marketdata.DatasetPriceBar, report.Dataset)
	assert.Equal(t, "alpha", report.Provider)
	assert.False(t, report.UsedFallback)
	assert.Equal(t, 1, report.Records)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, int64(1), report.Metrics[CounterDatasetRuns])

	assert.Equal(t, []string{"capture", "bars", "curated"}, repo.calls)
	require.Len(t, repo.curated, 1)
	stamp := repo.curated[0]
	assert.Equal(t, marketdata.DatasetPriceBar, stamp.name)
	assert.Equal(t, "placeholder", stamp.status)
	assert.Len(t, stamp.version, 14, "version is a UTC compact timestamp")
	assert.Equal(t, "alpha", stamp.payload["source_provider"])
}

func TestIngestDataset_RawCaptureSurvivesRejectedBatch(t *testing.T) {
	// A clock 6 minutes in the past makes every stub bar breach the
	// freshness SLA at validation time.
	past := time.Now().Add(-6 * time.Minute)
	primary := stub.New("alpha").Configure(stub.WithClock(func() time.Time { return past }))

	repo := &memoryRepo{}
	svc, metrics := newTestService(primary, stub.New("beta"), repo, 0.95)

	_, err := svc.IngestDataset(context.Background(), marketdata.DatasetPriceBar, 0)
	require.Error(t, err)
	var berr *BlockingError
	require.ErrorAs(t, err, &berr)
	assert.Contains(t, berr.Reason, "freshness SLA breach")

	assert.Equal(t, []string{"capture"}, repo.calls, "raw audit capture must complete before validation rejects")
	assert.Empty(t, repo.bars)
	assert.Equal(t, int64(1), metrics.Snapshot()[CounterFreshnessBreach])
}

func TestIngestDataset_FallbackPropagatesIntoReport(t *testing.T) {
	primary := stub.New("alpha", marketdata.DatasetInstrument)
	repo := &memoryRepo{}
	svc, metrics := newTestService(primary, stub.New("beta"), repo, 0.95)

	report, err := svc.IngestDataset(context.Background(), marketdata.DatasetInstrument, 0)
	require.NoError(t, err)
	assert.Equal(t, "beta", report.Provider)
	assert.True(t, report.UsedFallback)
	assert.Equal(t, int64(1), metrics.Snapshot()[CounterFailoverEvents])
	require.Len(t, repo.instruments, 1)
	assert.Equal(t, "A67.AAPL", repo.instruments[0].InstrumentID)
}

func TestIngestDataset_MissingBarsCounter(t *testing.T) {
	repo := &memoryRepo{}
	// min ratio 0.5 lets a half-complete batch through so the gap is
	// recorded as missing bars instead of blocking
	svc, metrics := newTestService(stub.New("alpha"), stub.New("beta"), repo, 0.5)

	report, err := svc.IngestDataset(context.Background(), marketdata.DatasetPriceBar, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Records)
	assert.Equal(t, int64(1), metrics.Snapshot()[CounterMissingBars])
}

func TestIngestDataset_UnsupportedDataset(t *testing.T) {
	repo := &memoryRepo{}
	svc, metrics := newTestService(stub.New("alpha"), stub.New("beta"), repo, 0.95)

	_, err := svc.IngestDataset(context.Background(), "order_book", 0)
	require.Error(t, err)
	var berr *BlockingError
	require.ErrorAs(t, err, &berr)
	assert.Contains(t, berr.Reason, "unsupported dataset")
	assert.Zero(t, metrics.Snapshot()[CounterFailoverEvents], "a config fault must not trigger failover")
}

func TestIngestDataset_SessionCalendars(t *testing.T) {
	repo := &memoryRepo{}
	svc, _ := newTestService(stub.New("alpha"), stub.New("beta"), repo, 0.95)

	report, err := svc.IngestDataset(context.Background(), marketdata.DatasetSessionCalendar, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Records)
	require.Len(t, repo.calendars, 1)
	assert.Equal(t, "NASDAQ", repo.calendars[0].Venue)
	assert.Equal(t, "09:30", repo.calendars[0].SessionStart)
}
