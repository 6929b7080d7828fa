package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apollo67-api/pkg/marketdata"
	"apollo67-api/pkg/marketdata/providers/stub"
)

func TestFetchWithFailover_PrimaryServes(t *testing.T) {
	metrics := NewMetrics()
	h := NewHierarchy(stub.New("alpha"), stub.New("beta"), metrics)

	result, err := h.FetchWithFailover(context.Background(), marketdata.DatasetInstrument)
	require.NoError(t, err)
	assert.Equal(t, "alpha", result.Provider)
	assert.False(t, result.UsedFallback)
	assert.NotEmpty(t, result.Records)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap[CounterIngestionSuccess])
	assert.Zero(t, snap[CounterFailoverEvents])
}

func TestFetchWithFailover_FallbackOnUnavailable(t *testing.T) {
	metrics := NewMetrics()
	primary := stub.New("alpha", marketdata.DatasetPriceBar)
	h := NewHierarchy(primary, stub.New("beta"), metrics)

	result, err := h.FetchWithFailover(context.Background(), marketdata.DatasetPriceBar)
	require.NoError(t, err)
	assert.Equal(t, "beta", result.Provider)
	assert.True(t, result.UsedFallback)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap[CounterFailoverEvents])
	assert.Equal(t, int64(1), snap[CounterIngestionFail])
	assert.Equal(t, int64(1), snap[CounterIngestionSuccess])
}

func TestFetchWithFailover_BothUnavailable(t *testing.T) {
	metrics := NewMetrics()
	primary := stub.New("alpha", marketdata.DatasetPriceBar)
	fallback := stub.New("beta", marketdata.DatasetPriceBar)
	h := NewHierarchy(primary, fallback, metrics)

	_, err := h.FetchWithFailover(context.Background(), marketdata.DatasetPriceBar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both providers unavailable")
	assert.ErrorIs(t, err, marketdata.ErrProviderUnavailable)
}

// erroringProvider fails with an error that does not wrap the unavailable
// sentinel, standing in for an adapter-internal bug.
type erroringProvider struct {
	*stub.Provider
	calls *int
}

func (p erroringProvider) FetchDataset(ctx context.Context, dataset string) (*marketdata.ProviderResult, error) {
	*p.calls++
	return nil, errors.New("adapter bug: nil pointer in decoder")
}

func TestFetchWithFailover_InternalFailureDoesNotFailOver(t *testing.T) {
	metrics := NewMetrics()
	calls := 0
	primary := erroringProvider{Provider: stub.New("alpha"), calls: &calls}
	fallback := stub.New("beta")
	h := NewHierarchy(primary, fallback, metrics)

	_, err := h.FetchWithFailover(context.Background(), marketdata.DatasetInstrument)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, metrics.Snapshot()[CounterFailoverEvents], "internal failures must not mask vendor bugs behind failover")
}
