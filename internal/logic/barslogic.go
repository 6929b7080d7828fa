package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
	"apollo67-api/pkg/marketdata"
)

type BarsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewBarsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *BarsLogic {
	return &BarsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Bars serves a bar batch, preferring the shared Redis cache, then the
// selector's in-process cache and vendor hierarchy.
func (l *BarsLogic) Bars(req *types.BarsRequest) (*types.BarsResponse, error) {
	symbol := marketdata.CanonicalSymbol(req.Symbol)
	if symbol == "" {
		return nil, badRequestf("symbol parameter is required")
	}
	if req.OutputSize <= 0 {
		return nil, badRequestf("outputsize must be positive")
	}

	if bars, ok := l.svcCtx.Repos.Quotes.GetBars(l.ctx, symbol, req.Interval, req.OutputSize); ok {
		return &types.BarsResponse{
			Symbol:   symbol,
			Interval: req.Interval,
			Provider: "cache",
			Bars:     bars,
		}, nil
	}

	result, err := l.svcCtx.Selector.Bars(l.ctx, symbol, req.Interval, req.OutputSize)
	if err != nil {
		return nil, err
	}
	l.svcCtx.Repos.Quotes.SetBars(l.ctx, symbol, req.Interval, req.OutputSize, result.Bars)

	return &types.BarsResponse{
		Symbol:   symbol,
		Interval: req.Interval,
		Provider: result.Provider,
		Bars:     result.Bars,
	}, nil
}
