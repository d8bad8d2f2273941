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
	"veilpay/pkg/platform/sentinel"
	"veilpay/pkg/platform/tx"
	"veilpay/pkg/requestcontext"
)

// AccountStore persists balance accounts.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByAddress(ctx context.Context, addr domain.Address) (*models.Account, error)
}

// EventLog appends committed events. Implementations must join the ambient
// transaction so an event only exists when the mutation committed.
type EventLog interface {
	Append(ctx context.Context, ev *event.Event) error
}

// TxRunner wraps an operation in one atomic unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service manages the balance account lifecycle: Nonexistent -> Initialized,
// with Initialized terminal.
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

// Init creates a zeroed account for owner at its derived address: nonce 0,
// all-zero ciphertext, owner bound through its commitment. Account creation is
// self-service: the signer must be the owner.
func (s *Service) Init(ctx context.Context, owner domain.Identity) (*models.Account, error) {
	signer := requestcontext.Signer(ctx)
	if signer.IsZero() {
		return nil, dErrors.New(dErrors.CodeMissingSigner, "account initialization requires the owner's signature")
	}
	if owner.IsZero() {
		owner = signer
	}
	if owner != signer {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "accounts are self-service: signer must be the owner")
	}

	derived, err := addressing.ForBalance(owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "derive balance address")
	}

	now := requestcontext.Now(ctx)
	account := models.New(derived.Address, s.backend.CommitOwner(owner), derived.Bump, now)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.accounts.Create(txCtx, account); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.New(dErrors.CodeAlreadyInitialized, "balance account is already initialized")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "create balance account")
		}
		return s.events.Append(txCtx, event.NewBalanceInitialized(account.OwnerCommitment, now))
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncBalancesInitialized()
	}
	s.logger.InfoContext(ctx, "balance account initialized", "address", account.Address.String())
	return account, nil
}

// Get returns the account for owner, re-deriving the address rather than
// trusting a caller-supplied one.
func (s *Service) Get(ctx context.Context, owner domain.Identity) (*models.Account, error) {
	derived, err := addressing.ForBalance(owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "derive balance address")
	}
	account, err := s.accounts.FindByAddress(ctx, derived.Address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeAccountNotInitialized, "balance account is not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fetch balance account")
	}
	return account, nil
}
