package store

import (
	"context"
	"sync"

	"veilpay/internal/balance/models"
	"veilpay/pkg/domain"
	"veilpay/pkg/platform/sentinel"
)

// InMemory keeps balance accounts under one mutex, giving the same guarantee
// the SQL store gets from row locks: no two operations mutate the same
// account concurrently, and a transfer sees and writes both accounts as one
// unit.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[domain.Address]*models.Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[domain.Address]*models.Account)}
}

// Create inserts a new account, failing if one exists at the address.
func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Address]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.accounts[account.Address] = account.Clone()
	return nil
}

// FindByAddress returns a copy of the account at addr.
func (s *InMemory) FindByAddress(_ context.Context, addr domain.Address) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return account.Clone(), nil
}

// ExecutePair runs fn over the two accounts while holding the store lock and
// writes both back only when fn succeeds. fn receives copies (nil for missing
// accounts), so a failing validation leaves stored state untouched. This is
// the both-or-neither contract the transfer engine relies on.
func (s *InMemory) ExecutePair(
	_ context.Context,
	first, second domain.Address,
	fn func(first, second *models.Account) error,
) (*models.Account, *models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.accounts[first].Clone()
	b := s.accounts[second].Clone()

	if err := fn(a, b); err != nil {
		return nil, nil, err
	}
	if a == nil || b == nil {
		return nil, nil, sentinel.ErrNotFound
	}

	s.accounts[first] = a.Clone()
	s.accounts[second] = b.Clone()
	return a, b, nil
}
