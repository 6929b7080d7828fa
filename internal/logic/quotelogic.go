package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
	"apollo67-api/pkg/marketdata"
)

type QuoteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewQuoteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *QuoteLogic {
	return &QuoteLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Quote serves a validated quote for one symbol. The shared Redis cache is
// consulted first; live fetches go through the selector so freshness
// revalidation and failover apply.
func (l *QuoteLogic) Quote(req *types.QuoteRequest) (*types.QuoteResponse, error) {
	symbol := marketdata.CanonicalSymbol(req.Symbol)
	if symbol == "" {
		return nil, badRequestf("symbol parameter is required")
	}
	return l.fetch(symbol)
}

func (l *QuoteLogic) fetch(symbol string) (*types.QuoteResponse, error) {
	if cached, ok := l.svcCtx.Repos.Quotes.GetQuote(l.ctx, symbol); ok && l.cachedQuoteFresh(cached) {
		return &types.QuoteResponse{Symbol: symbol, Provider: cached.Provider, Quote: cached.Quote}, nil
	}

	result, err := l.svcCtx.Selector.Quote(l.ctx, symbol)
	if err != nil {
		return nil, err
	}
	l.svcCtx.Repos.Quotes.SetQuote(l.ctx, symbol, result)

	return &types.QuoteResponse{
		Symbol:   symbol,
		Provider: result.Provider,
		Quote:    result.Quote,
	}, nil
}

// cachedQuoteFresh re-checks the freshness SLA on a shared-cache hit. The
// cache TTL is tunable independently of the SLA, so a hit that aged past the
// SLA falls through to the selector instead of being re-served.
func (l *QuoteLogic) cachedQuoteFresh(cached *marketdata.QuoteResult) bool {
	if cached == nil {
		return false
	}
	sla := time.Duration(l.svcCtx.Config.Quality.FreshnessSLASeconds) * time.Second
	return marketdata.ValidateQuoteAt(cached.Quote, sla, time.Now()) == nil
}
