package httptransport

import (
	"context"
	"net/http"

	mintmodels "veilpay/internal/mint/models"
	"veilpay/pkg/platform/httputil"
	"veilpay/pkg/requestcontext"
)

// MintService is the surface of the mint registry the transport needs.
type MintService interface {
	Initialize(ctx context.Context, config [mintmodels.ConfigLen]byte) (*mintmodels.Registry, error)
	Fetch(ctx context.Context) (*mintmodels.Registry, error)
}

// HandleInitializeMint handles POST /v1/mint.
func (h *Handlers) HandleInitializeMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[InitializeMintRequest](w, r)
	if !ok {
		return
	}
	config, err := req.ParsedConfig()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	registry, err := h.mint.Initialize(ctx, config)
	if err != nil {
		h.logger.ErrorContext(ctx, "mint initialization failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toMintResponse(registry))
}

// HandleFetchMint handles GET /v1/mint.
func (h *Handlers) HandleFetchMint(w http.ResponseWriter, r *http.Request) {
	registry, err := h.mint.Fetch(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMintResponse(registry))
}
