package handler

import (
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"apollo67-api/internal/logic"
	"apollo67-api/internal/types"
	"apollo67-api/pkg/ingest"
	"apollo67-api/pkg/marketdata"
)

// writeError maps pipeline errors onto the boundary contract: caller faults
// become 400, provider and validation failures become a uniform 503 degraded
// body, anything else is an internal fault scoped to this request.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var badReq *logic.BadRequestError
	if errors.As(err, &badReq) {
		httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest, &types.DegradedResponse{
			Status:  "error",
			Message: badReq.Msg,
		})
		return
	}

	var provErr *marketdata.ProviderError
	if errors.As(err, &provErr) {
		httpx.WriteJsonCtx(r.Context(), w, http.StatusServiceUnavailable, &types.DegradedResponse{
			Status:   "error",
			Provider: provErr.Provider,
			Message:  provErr.Error(),
		})
		return
	}

	var valErr *marketdata.ValidationError
	var blockErr *ingest.BlockingError
	if errors.As(err, &valErr) || errors.As(err, &blockErr) || errors.Is(err, marketdata.ErrProviderUnavailable) {
		httpx.WriteJsonCtx(r.Context(), w, http.StatusServiceUnavailable, &types.DegradedResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	httpx.WriteJsonCtx(r.Context(), w, http.StatusInternalServerError, &types.DegradedResponse{
		Status:  "error",
		Message: "internal error",
	})
}

// writeSignalError is the compact error shape used by signal endpoints.
func writeSignalError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusServiceUnavailable
	var badReq *logic.BadRequestError
	if errors.As(err, &badReq) {
		status = http.StatusBadRequest
	}
	httpx.WriteJsonCtx(r.Context(), w, status, &types.ErrorResponse{Error: err.Error()})
}
