package store

import (
	"context"
	"sync"

	"veilpay/internal/mint/models"
	"veilpay/pkg/domain"
	"veilpay/pkg/platform/sentinel"
)

// InMemory holds the singleton registry record for unit tests and DSN-less
// deployments.
type InMemory struct {
	mu         sync.RWMutex
	registries map[domain.Address]*models.Registry
}

func NewInMemory() *InMemory {
	return &InMemory{registries: make(map[domain.Address]*models.Registry)}
}

// Create inserts the registry, failing loudly if one exists at the address.
func (s *InMemory) Create(_ context.Context, registry *models.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registries[registry.Address]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.registries[registry.Address] = registry.Clone()
	return nil
}

// FindByAddress returns the registry at addr.
func (s *InMemory) FindByAddress(_ context.Context, addr domain.Address) (*models.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registry, ok := s.registries[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return registry.Clone(), nil
}
