package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"apollo67-api/internal/svc"
)

// RegisterHandlers wires the HTTP surface onto the rest server.
func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/healthz",
				Handler: HealthzHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/config",
				Handler: ConfigHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/provider/search",
				Handler: SearchHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/market/bars",
				Handler: BarsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/market/quote",
				Handler: QuoteHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/market/quotes",
				Handler: BatchQuotesHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/signal/basic",
				Handler: SignalHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/signal/batch",
				Handler: BatchSignalsHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/api/ingest",
				Handler: IngestHandler(serverCtx),
			},
		},
	)
}
