package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"apollo67-api/internal/logic"
	"apollo67-api/internal/svc"
)

func ConfigHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewConfigLogic(r.Context(), svcCtx)
		httpx.OkJsonCtx(r.Context(), w, l.Config())
	}
}
