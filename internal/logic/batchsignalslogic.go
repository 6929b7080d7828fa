package logic

import (
	"context"
	"sync"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
)

type BatchSignalsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewBatchSignalsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *BatchSignalsLogic {
	return &BatchSignalsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// BatchSignals computes composite signals for up to MaxBatchSymbols symbols
// with per-symbol failure isolation.
func (l *BatchSignalsLogic) BatchSignals(req *types.BatchRequest) (*types.BatchSignalsResponse, error) {
	symbols, err := parseSymbols(req.Symbols)
	if err != nil {
		return nil, err
	}

	results := make(map[string]types.SignalOutcome, len(symbols))
	var mu sync.Mutex

	mr.ForEach(func(source chan<- string) {
		for _, symbol := range symbols {
			source <- symbol
		}
	}, func(symbol string) {
		outcome := types.SignalOutcome{}
		if resp, err := NewSignalLogic(l.ctx, l.svcCtx).compute(symbol); err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Signal = &resp.Signal
		}
		mu.Lock()
		results[symbol] = outcome
		mu.Unlock()
	}, mr.WithWorkers(batchWorkers))

	return &types.BatchSignalsResponse{Results: results}, nil
}
