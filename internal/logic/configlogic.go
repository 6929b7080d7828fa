package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
)

type ConfigLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewConfigLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ConfigLogic {
	return &ConfigLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Config returns the operator-facing config snapshot with credentials
// redacted.
func (l *ConfigLogic) Config() *types.ConfigResponse {
	c := l.svcCtx.Config
	return &types.ConfigResponse{
		AppEnv:               c.Env,
		DatabaseURL:          c.RedactedDatabaseURL(),
		DataProviderPrimary:  c.DataProviderPrimary,
		DataProviderFallback: c.DataProviderFallback,
		FreshnessSLASeconds:  c.Quality.FreshnessSLASeconds,
		CompletenessMinRatio: c.Quality.CompletenessMinRatio,
		CalendarSessionStart: c.Calendar.Start,
		CalendarSessionEnd:   c.Calendar.End,
		Locked: types.LockedParameters{
			LockEnabled:               c.ConfigLockEnabled,
			OverrideEnabled:           c.ConfigOverrideEnabled,
			EisMinEntryScore:          c.Strategy.EisMinEntryScore,
			PortfolioHeatHardCap:      c.Strategy.PortfolioHeatHardCap,
			DrawdownHaltPct:           c.Strategy.DrawdownHaltPct,
			RotationAdvantageRatioMin: c.Strategy.RotationAdvantageRatioMin,
			CpasTargetUsd:             c.Strategy.CpasTargetUsd,
		},
	}
}
