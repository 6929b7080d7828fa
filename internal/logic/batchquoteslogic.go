package logic

import (
	"context"
	"sync"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
)

// batchWorkers bounds concurrency for batch fan-out.
const batchWorkers = 4

type BatchQuotesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewBatchQuotesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *BatchQuotesLogic {
	return &BatchQuotesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// BatchQuotes fans symbol fetches out over a bounded worker pool. Each
// symbol succeeds or fails independently; one symbol's error never cancels
// its siblings.
func (l *BatchQuotesLogic) BatchQuotes(req *types.BatchRequest) (*types.BatchQuotesResponse, error) {
	symbols, err := parseSymbols(req.Symbols)
	if err != nil {
		return nil, err
	}

	results := make(map[string]types.QuoteOutcome, len(symbols))
	var mu sync.Mutex

	mr.ForEach(func(source chan<- string) {
		for _, symbol := range symbols {
			source <- symbol
		}
	}, func(symbol string) {
		outcome := types.QuoteOutcome{}
		if resp, err := NewQuoteLogic(l.ctx, l.svcCtx).fetch(symbol); err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Provider = resp.Provider
			outcome.Quote = &resp.Quote
		}
		mu.Lock()
		results[symbol] = outcome
		mu.Unlock()
	}, mr.WithWorkers(batchWorkers))

	return &types.BatchQuotesResponse{Results: results}, nil
}
