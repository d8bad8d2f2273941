package service

import (
	"context"
	"errors"
	"log/slog"

	"veilpay/internal/addressing"
	"veilpay/internal/mint/models"
	"veilpay/pkg/domain"
	dErrors "veilpay/pkg/domain-errors"
	"veilpay/pkg/platform/sentinel"
	"veilpay/pkg/platform/tx"
	"veilpay/pkg/requestcontext"
)

// RegistryStore persists the singleton registry record.
type RegistryStore interface {
	Create(ctx context.Context, registry *models.Registry) error
	FindByAddress(ctx context.Context, addr domain.Address) (*models.Registry, error)
}

// TxRunner wraps an operation in one atomic unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service manages the mint registry lifecycle. The registry anchors trust for
// backend re-configuration; nothing on the transfer path consults it.
type Service struct {
	registries RegistryStore
	tx         TxRunner
	logger     *slog.Logger

	// authority, when set, is the only identity allowed to initialize.
	authority domain.Identity
}

type Option func(*Service)

// WithTxRunner installs a transactional runner (used with the SQL store).
func WithTxRunner(runner TxRunner) Option {
	return func(s *Service) { s.tx = runner }
}

// WithAuthority restricts initialization to the given identity.
func WithAuthority(authority domain.Identity) Option {
	return func(s *Service) { s.authority = authority }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(registries RegistryStore, opts ...Option) *Service {
	s := &Service{
		registries: registries,
		tx:         tx.NopRunner{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates the registry once. Re-running against an initialized
// registry is safe to attempt but is rejected with AlreadyInitialized; blind
// retriers treat that as success.
func (s *Service) Initialize(ctx context.Context, config [models.ConfigLen]byte) (*models.Registry, error) {
	signer := requestcontext.Signer(ctx)
	if signer.IsZero() {
		return nil, dErrors.New(dErrors.CodeMissingSigner, "mint initialization requires the authority's signature")
	}
	if !s.authority.IsZero() && signer != s.authority {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "signer is not the mint authority")
	}

	derived, err := addressing.ForMint()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "derive mint address")
	}

	registry := models.New(derived.Address, signer, config, derived.Bump, requestcontext.Now(ctx))
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.registries.Create(txCtx, registry); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.New(dErrors.CodeAlreadyInitialized, "mint registry is already initialized")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "create mint registry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "mint registry initialized",
		"address", registry.Address.String(),
		"authority", registry.Authority.String(),
	)
	return registry, nil
}

// Fetch returns the registry, or NotFound before initialization. Read-only.
func (s *Service) Fetch(ctx context.Context) (*models.Registry, error) {
	derived, err := addressing.ForMint()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "derive mint address")
	}
	registry, err := s.registries.FindByAddress(ctx, derived.Address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "mint registry is not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fetch mint registry")
	}
	return registry, nil
}
