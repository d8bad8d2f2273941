package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilpay/internal/addressing"
	"veilpay/internal/mint/models"
	"veilpay/internal/mint/store"
	"veilpay/pkg/domain"
	dErrors "veilpay/pkg/domain-errors"
	"veilpay/pkg/requestcontext"
)

func signedCtx(signer domain.Identity) context.Context {
	ctx := requestcontext.WithSigner(context.Background(), signer)
	return requestcontext.WithTime(ctx, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func testIdentity(seed byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = seed
	}
	return id
}

func testConfig() [models.ConfigLen]byte {
	var cfg [models.ConfigLen]byte
	for i := range cfg {
		cfg[i] = byte(i)
	}
	return cfg
}

func TestService_Initialize(t *testing.T) {
	authority := testIdentity(0x0A)
	svc := New(store.NewInMemory())

	registry, err := svc.Initialize(signedCtx(authority), testConfig())
	require.NoError(t, err)

	derived, err := addressing.ForMint()
	require.NoError(t, err)
	assert.Equal(t, derived.Address, registry.Address)
	assert.Equal(t, derived.Bump, registry.Bump)
	assert.Equal(t, authority, registry.Authority)
	assert.Equal(t, testConfig(), registry.Config)
}

func TestService_Initialize_Twice(t *testing.T) {
	svc := New(store.NewInMemory())

	_, err := svc.Initialize(signedCtx(testIdentity(0x0A)), testConfig())
	require.NoError(t, err)

	_, err = svc.Initialize(signedCtx(testIdentity(0x0B)), testConfig())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyInitialized))
}

func TestService_Initialize_RequiresSigner(t *testing.T) {
	svc := New(store.NewInMemory())

	_, err := svc.Initialize(context.Background(), testConfig())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingSigner))
}

func TestService_Initialize_EnforcesAuthority(t *testing.T) {
	authority := testIdentity(0x0A)
	svc := New(store.NewInMemory(), WithAuthority(authority))

	_, err := svc.Initialize(signedCtx(testIdentity(0x0B)), testConfig())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = svc.Initialize(signedCtx(authority), testConfig())
	require.NoError(t, err)
}

func TestService_Fetch(t *testing.T) {
	svc := New(store.NewInMemory())

	_, err := svc.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	created, err := svc.Initialize(signedCtx(testIdentity(0x0A)), testConfig())
	require.NoError(t, err)

	fetched, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, created.Address, fetched.Address)
	assert.Equal(t, created.Config, fetched.Config)
}
