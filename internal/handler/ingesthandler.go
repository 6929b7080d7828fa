package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"apollo67-api/internal/logic"
	"apollo67-api/internal/svc"
	"apollo67-api/internal/types"
)

func IngestHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.IngestRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewIngestLogic(r.Context(), svcCtx)
		resp, err := l.Ingest(&req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
