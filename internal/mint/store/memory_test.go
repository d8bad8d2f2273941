package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilpay/internal/mint/models"
	"veilpay/pkg/domain"
	"veilpay/pkg/platform/sentinel"
)

func testRegistry() *models.Registry {
	var addr domain.Address
	var authority domain.Identity
	addr[0], authority[0] = 0x01, 0x02
	var cfg [models.ConfigLen]byte
	cfg[0] = 0x5A
	return models.New(addr, authority, cfg, 253, time.Now().UTC())
}

func TestInMemory(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	registry := testRegistry()

	_, err := store.FindByAddress(ctx, registry.Address)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Create(ctx, registry))
	assert.ErrorIs(t, store.Create(ctx, registry), sentinel.ErrAlreadyExists)

	found, err := store.FindByAddress(ctx, registry.Address)
	require.NoError(t, err)
	assert.Equal(t, registry.Authority, found.Authority)
	assert.Equal(t, registry.Config, found.Config)

	// Mutating the returned copy does not touch stored state.
	found.Config[0] = 0xFF
	again, err := store.FindByAddress(ctx, registry.Address)
	require.NoError(t, err)
	assert.Equal(t, byte(0x5A), again.Config[0])
}
