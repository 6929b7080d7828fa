package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
)

type HealthzLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewHealthzLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HealthzLogic {
	return &HealthzLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Healthz reports service liveness. A failed database ping degrades the
// status but still reports it, so load balancers can act on the body.
func (l *HealthzLogic) Healthz() (*types.HealthzResponse, bool) {
	resp := &types.HealthzResponse{
		Status:   "ok",
		Env:      l.svcCtx.Config.Env,
		Database: "ok",
	}
	if err := l.svcCtx.Repos.Ingestion.Ping(l.ctx); err != nil {
		l.Errorf("healthz database ping failed: %v", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		return resp, false
	}
	return resp, true
}
