// Package service implements the transfer engine: validation and atomic
// application of a single transfer between two balance accounts.
package service

import (
	"context"
	"errors"
	"log/slog"

	"veilpay/internal/addressing"
	"veilpay/internal/balance/models"
	"veilpay/internal/cspl"
	"veilpay/internal/event"
	"veilpay/internal/platform/metrics"
	"veilpay/pkg/domain"
	dErrors "veilpay/pkg/domain-errors"
	"veilpay/pkg/platform/tx"
	"veilpay/pkg/requestcontext"
)

// Record is the ephemeral input of one engine invocation. It is never
// persisted; only its effects on the two accounts and the emitted event are.
type Record struct {
	SenderIdentity   domain.Identity
	ReceiverIdentity domain.Identity
	SenderAccount    domain.Address
	ReceiverAccount  domain.Address
	EncryptedAmount  cspl.Ciphertext
	ExpectedNonce    uint64
	CommitmentHash   [32]byte
	RoutingTag       [32]byte
}

// AccountStore provides the atomic two-account mutation primitive. fn
// receives working copies (nil for missing accounts); the store persists both
// only when fn succeeds, and persists neither otherwise.
type AccountStore interface {
	ExecutePair(
		ctx context.Context,
		first, second domain.Address,
		fn func(first, second *models.Account) error,
	) (*models.Account, *models.Account, error)
}

// EventLog appends committed events inside the ambient transaction.
type EventLog interface {
	Append(ctx context.Context, ev *event.Event) error
}

// TxRunner wraps an operation in one atomic unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service validates and applies transfers. Ordering is enforced by the
// expected-nonce check alone: whoever presents the current nonce wins, the
// loser observes InvalidNonce and must resubmit with a refreshed nonce. The
// engine never retries on the caller's behalf.
type Service struct {
	accounts AccountStore
	events   EventLog
	backend  cspl.Backend
	tx       TxRunner
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithTxRunner(runner TxRunner) Option {
	return func(s *Service) { s.tx = runner }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(accounts AccountStore, events EventLog, backend cspl.Backend, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		events:   events,
		backend:  backend,
		tx:       tx.NopRunner{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transfer applies one transfer atomically: both accounts updated and one
// PrivateTransfer event appended, or nothing at all. Preconditions are
// checked in a fixed order and the first failure wins:
//
//  1. the signer must bind to the sender account's owner commitment
//  2. the receiver account must be initialized
//  3. the claimed nonce must equal the sender's current nonce exactly
//  4. the encrypted amount must not be the all-zero sentinel
//  5. the backend must not signal insufficiency
//
// State is re-read inside the transaction immediately before validation; no
// account state is cached across operations.
func (s *Service) Transfer(ctx context.Context, rec Record) (*models.Account, *models.Account, error) {
	sender, receiver, err := s.transfer(ctx, rec)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncTransferFailure(string(dErrors.CodeOf(err)))
		}
		return nil, nil, err
	}
	if s.metrics != nil {
		s.metrics.IncTransfersCommitted()
	}
	s.logger.InfoContext(ctx, "private transfer committed",
		"request_id", requestcontext.RequestID(ctx),
		"sender_nonce", sender.Nonce,
		"receiver_nonce", receiver.Nonce,
	)
	return sender, receiver, nil
}

func (s *Service) transfer(ctx context.Context, rec Record) (*models.Account, *models.Account, error) {
	signer := rec.SenderIdentity
	if signer.IsZero() {
		return nil, nil, dErrors.New(dErrors.CodeMissingSigner, "transfers require the sender's signature")
	}
	if rec.SenderAccount == rec.ReceiverAccount {
		return nil, nil, dErrors.New(dErrors.CodeInvalidInput, "a transfer involves two distinct accounts")
	}

	// Addresses are re-derived, never trusted. A sender address that is not
	// the signer's canonical derivation is an access violation; a receiver
	// address that does not match its claimed identity is a malformed request.
	if !addressing.VerifyBalance(rec.SenderAccount, signer) {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorizedAccess, "sender account is not bound to the signer")
	}
	if !rec.ReceiverIdentity.IsZero() && !addressing.VerifyBalance(rec.ReceiverAccount, rec.ReceiverIdentity) {
		return nil, nil, dErrors.New(dErrors.CodeInvalidInput, "receiver account does not match the receiver identity")
	}

	signerCommitment := s.backend.CommitOwner(signer)
	now := requestcontext.Now(ctx)

	var sender, receiver *models.Account
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		sender, receiver, err = s.accounts.ExecutePair(txCtx, rec.SenderAccount, rec.ReceiverAccount,
			func(snd, rcv *models.Account) error {
				if snd == nil {
					return dErrors.New(dErrors.CodeAccountNotInitialized, "sender account is not initialized")
				}
				if !snd.OwnedBy(signerCommitment) {
					return dErrors.New(dErrors.CodeUnauthorizedAccess, "signer does not own the sender account")
				}
				if rcv == nil {
					return dErrors.New(dErrors.CodeAccountNotInitialized, "receiver account is not initialized")
				}
				if err := snd.CheckNonce(rec.ExpectedNonce); err != nil {
					return err
				}
				if rec.EncryptedAmount.IsZero() {
					return dErrors.New(dErrors.CodeInvalidEncryption, "encrypted amount is the uninitialized sentinel")
				}
				if err := s.backend.AssertSpendable(snd.EncryptedBalance, rec.EncryptedAmount); err != nil {
					return coerceBackendErr(err)
				}

				debited, err := s.backend.Debit(snd.EncryptedBalance, rec.EncryptedAmount)
				if err != nil {
					return coerceBackendErr(err)
				}
				credited, err := s.backend.Credit(rcv.EncryptedBalance, rec.EncryptedAmount)
				if err != nil {
					return coerceBackendErr(err)
				}

				snd.ApplyBalance(debited)
				rcv.ApplyBalance(credited)

				// Appending here keeps the event inside the same atomic unit
				// as the account writes.
				return s.events.Append(txCtx, event.NewPrivateTransfer(rec.CommitmentHash, rec.RoutingTag, snd.Bump, now))
			})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return sender, receiver, nil
}

// coerceBackendErr maps backend boundary errors into the protocol taxonomy.
func coerceBackendErr(err error) error {
	switch {
	case errors.Is(err, cspl.ErrInsufficientBalance):
		return dErrors.Wrap(err, dErrors.CodeInsufficientBalance, "backend rejected the transfer as unspendable")
	case errors.Is(err, cspl.ErrInvalidEncryption):
		return dErrors.Wrap(err, dErrors.CodeInvalidEncryption, "backend rejected the ciphertext format")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "confidentiality backend failure")
	}
}
