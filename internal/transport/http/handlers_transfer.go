package httptransport

import (
	"context"
	"net/http"

	"veilpay/internal/addressing"
	balancemodels "veilpay/internal/balance/models"
	transfersvc "veilpay/internal/transfer/service"
	"veilpay/pkg/domain"
	"veilpay/pkg/platform/httputil"
	"veilpay/pkg/requestcontext"
)

// TransferService is the surface of the transfer engine the transport needs.
type TransferService interface {
	Transfer(ctx context.Context, rec transfersvc.Record) (*balancemodels.Account, *balancemodels.Account, error)
}

// HandleTransfer handles POST /v1/transfers.
func (h *Handlers) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[TransferRequest](w, r)
	if !ok {
		return
	}
	rec, err := h.buildTransferRecord(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sender, receiver, err := h.transfer.Transfer(ctx, rec)
	if err != nil {
		h.logger.ErrorContext(ctx, "transfer rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TransferResponse{
		Sender:   toAccountResponse(sender),
		Receiver: toAccountResponse(receiver),
	})
}

// buildTransferRecord assembles the engine input from the request, deriving
// any account address the client left out.
func (h *Handlers) buildTransferRecord(ctx context.Context, req *TransferRequest) (transfersvc.Record, error) {
	var rec transfersvc.Record
	var err error

	rec.SenderIdentity = requestcontext.Signer(ctx)
	if rec.ReceiverIdentity, err = req.ParsedReceiver(); err != nil {
		return rec, err
	}
	if rec.EncryptedAmount, err = req.ParsedEncryptedAmount(); err != nil {
		return rec, err
	}
	if rec.CommitmentHash, err = req.ParsedCommitmentHash(); err != nil {
		return rec, err
	}
	if rec.RoutingTag, err = req.ParsedRoutingTag(); err != nil {
		return rec, err
	}
	rec.ExpectedNonce = req.ExpectedNonce

	if rec.SenderAccount, err = resolveAccount(req.SenderAccount, rec.SenderIdentity); err != nil {
		return rec, err
	}
	if rec.ReceiverAccount, err = resolveAccount(req.ReceiverAccount, rec.ReceiverIdentity); err != nil {
		return rec, err
	}
	return rec, nil
}

// resolveAccount parses an explicit address or derives the canonical one for
// the identity.
func resolveAccount(explicit string, owner domain.Identity) (domain.Address, error) {
	if explicit != "" {
		return domain.ParseAddress(explicit)
	}
	derived, err := addressing.ForBalance(owner)
	if err != nil {
		return domain.Address{}, err
	}
	return derived.Address, nil
}
