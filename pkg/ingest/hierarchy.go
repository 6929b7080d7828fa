package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/pkg/marketdata"
)

// Hierarchy orders a primary and a fallback provider for dataset pulls. It
// is generic over the provider interface and never inspects vendor types.
type Hierarchy struct {
	primary  marketdata.Provider
	fallback marketdata.Provider
	metrics  *Metrics
}

// NewHierarchy wires a failover pair.
func NewHierarchy(primary, fallback marketdata.Provider, metrics *Metrics) *Hierarchy {
	return &Hierarchy{primary: primary, fallback: fallback, metrics: metrics}
}

// FetchWithFailover pulls a dataset from the primary provider and retries
// against the fallback only when the primary explicitly signals it cannot
// serve (ErrProviderUnavailable). Adapter-internal failures propagate
// unchanged: failing over on them would mask vendor bugs behind silently
// different data.
func (h *Hierarchy) FetchWithFailover(ctx context.Context, dataset string) (*marketdata.ProviderResult, error) {
	result, err := h.fetch(ctx, h.primary, dataset)
	if err == nil {
		h.metrics.Inc(CounterIngestionSuccess)
		h.logSuccess(ctx, dataset, result)
		return result, nil
	}
	if !errors.Is(err, marketdata.ErrProviderUnavailable) {
		return nil, err
	}

	h.metrics.Inc(CounterIngestionFail)
	h.metrics.Inc(CounterFailoverEvents)
	logx.WithContext(ctx).Infow("provider failover",
		logx.Field("dataset", dataset),
		logx.Field("primary_provider", h.primary.Name()),
		logx.Field("fallback_provider", h.fallback.Name()),
		logx.Field("reason", err.Error()),
	)

	result, err = h.fetch(ctx, h.fallback, dataset)
	if err != nil {
		return nil, fmt.Errorf("both providers unavailable for dataset %s: %w", dataset, err)
	}
	result.UsedFallback = true
	h.metrics.Inc(CounterIngestionSuccess)
	h.logSuccess(ctx, dataset, result)
	return result, nil
}

func (h *Hierarchy) fetch(ctx context.Context, provider marketdata.Provider, dataset string) (*marketdata.ProviderResult, error) {
	started := time.Now()
	result, err := provider.FetchDataset(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if result.LatencyMS == 0 {
		result.LatencyMS = float64(time.Since(started)) / float64(time.Millisecond)
	}
	return result, nil
}

func (h *Hierarchy) logSuccess(ctx context.Context, dataset string, result *marketdata.ProviderResult) {
	logx.WithContext(ctx).Infow("provider success",
		logx.Field("dataset", dataset),
		logx.Field("provider", result.Provider),
		logx.Field("used_fallback", result.UsedFallback),
		logx.Field("latency_ms", result.LatencyMS),
	)
}
