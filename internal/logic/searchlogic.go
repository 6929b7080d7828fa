package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
	"apollo67-api/pkg/marketdata"
)

type SearchLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSearchLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SearchLogic {
	return &SearchLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Search runs a symbol search against the primary vendor, failing over on
// transient errors only.
func (l *SearchLogic) Search(req *types.SearchRequest) (*types.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, badRequestf("q parameter is required")
	}

	provider := l.svcCtx.Primary
	matches, err := provider.SearchSymbols(l.ctx, query)
	if err != nil {
		if marketdata.Classify(err) != marketdata.OutcomeTransient {
			return nil, err
		}
		l.Infow("symbol search failover",
			logx.Field("from", provider.Name()),
			logx.Field("to", l.svcCtx.Fallback.Name()),
			logx.Field("reason", err.Error()))
		provider = l.svcCtx.Fallback
		if matches, err = provider.SearchSymbols(l.ctx, query); err != nil {
			return nil, err
		}
	}

	return &types.SearchResponse{
		Provider: provider.Name(),
		Results:  matches,
	}, nil
}
