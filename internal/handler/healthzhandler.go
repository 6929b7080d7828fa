package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"apollo67-api/internal/logic"
	"apollo67-api/internal/svc"
)

func HealthzHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewHealthzLogic(r.Context(), svcCtx)
		resp, healthy := l.Healthz()
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		httpx.WriteJsonCtx(r.Context(), w, status, resp)
	}
}
