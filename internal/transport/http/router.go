// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services, and encode; no protocol rules live here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veilpay/internal/platform/middleware"
	"veilpay/pkg/platform/httputil"
)

// Handlers bundles the domain services behind the public endpoints.
type Handlers struct {
	mint     MintService
	balance  BalanceService
	transfer TransferService
	events   EventSource
	logger   *slog.Logger
}

func NewHandlers(
	mint MintService,
	balance BalanceService,
	transfer TransferService,
	events EventSource,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		mint:     mint,
		balance:  balance,
		transfer: transfer,
		events:   events,
		logger:   logger,
	}
}

// NewRouter wires the public surface. Writes require a verified request
// signature; reads are open.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Signature(h.logger))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/mint", middleware.RequireSigner(h.HandleInitializeMint))
		r.Get("/mint", h.HandleFetchMint)
		r.Post("/balances", middleware.RequireSigner(h.HandleInitBalance))
		r.Get("/balances/{owner}", h.HandleGetBalance)
		r.Post("/transfers", middleware.RequireSigner(h.HandleTransfer))
		r.Get("/events", h.HandleListEvents)
	})
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
