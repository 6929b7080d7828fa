package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
	"apollo67-api/pkg/marketdata"
)

type IngestLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewIngestLogic(ctx context.Context, svcCtx *svc.ServiceContext) *IngestLogic {
	return &IngestLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

var knownDatasets = map[string]struct{}{
	marketdata.DatasetInstrument:      {},
	marketdata.DatasetPriceBar:        {},
	marketdata.DatasetCorporateAction: {},
	marketdata.DatasetSessionCalendar: {},
}

// Ingest runs one pipeline pass for a dataset and reports the outcome.
func (l *IngestLogic) Ingest(req *types.IngestRequest) (*types.IngestResponse, error) {
	dataset := strings.TrimSpace(req.Dataset)
	if dataset == "" {
		return nil, badRequestf("dataset is required")
	}
	if _, ok := knownDatasets[dataset]; !ok {
		return nil, badRequestf("unknown dataset: %s", dataset)
	}
	if req.ExpectedCount < 0 {
		return nil, badRequestf("expected_count must not be negative")
	}

	report, err := l.svcCtx.Ingest.IngestDataset(l.ctx, dataset, req.ExpectedCount)
	if err != nil {
		return nil, err
	}

	resp := &types.IngestResponse{Report: *report}
	if version, err := l.svcCtx.Repos.Ingestion.LatestCuratedVersion(l.ctx, dataset); err != nil {
		l.Errorf("lookup curated version for %s: %v", dataset, err)
	} else {
		resp.CuratedVersion = version
	}
	return resp, nil
}
