package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
	"apollo67-api/pkg/marketdata"
	"apollo67-api/pkg/signal"
)

// signalBarWindow is how many daily bars feed the composite score.
const signalBarWindow = 60

type SignalLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSignalLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SignalLogic {
	return &SignalLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// BasicSignal computes the MA/RSI composite over recent daily bars.
func (l *SignalLogic) BasicSignal(req *types.SignalRequest) (*types.SignalResponse, error) {
	symbol := marketdata.CanonicalSymbol(req.Symbol)
	if symbol == "" {
		return nil, badRequestf("symbol parameter is required")
	}
	return l.compute(symbol)
}

func (l *SignalLogic) compute(symbol string) (*types.SignalResponse, error) {
	result, err := l.svcCtx.Selector.Bars(l.ctx, symbol, "1day", signalBarWindow)
	if err != nil {
		return nil, err
	}
	sig := signal.Compute(result.Bars)
	return &types.SignalResponse{Symbol: symbol, Signal: sig}, nil
}
