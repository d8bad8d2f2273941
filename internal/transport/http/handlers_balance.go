package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	balancemodels "veilpay/internal/balance/models"
	"veilpay/pkg/domain"
	"veilpay/pkg/platform/httputil"
	"veilpay/pkg/requestcontext"
)

// BalanceService is the surface of the balance account service the transport
// needs.
type BalanceService interface {
	Init(ctx context.Context, owner domain.Identity) (*balancemodels.Account, error)
	Get(ctx context.Context, owner domain.Identity) (*balancemodels.Account, error)
}

// HandleInitBalance handles POST /v1/balances.
func (h *Handlers) HandleInitBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[InitBalanceRequest](w, r)
	if !ok {
		return
	}
	owner, err := req.ParsedOwner()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.balance.Init(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "balance initialization failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

// HandleGetBalance handles GET /v1/balances/{owner}.
func (h *Handlers) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.ParseIdentity(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.balance.Get(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}
