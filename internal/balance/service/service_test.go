package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilpay/internal/addressing"
	"veilpay/internal/balance/store"
	"veilpay/internal/cspl"
	"veilpay/internal/event"
	eventstore "veilpay/internal/event/store"
	"veilpay/pkg/domain"
	dErrors "veilpay/pkg/domain-errors"
	"veilpay/pkg/requestcontext"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func signedCtx(signer domain.Identity) context.Context {
	ctx := requestcontext.WithSigner(context.Background(), signer)
	return requestcontext.WithTime(ctx, testNow)
}

func testIdentity(seed byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = seed
	}
	return id
}

func newService() (*Service, *eventstore.InMemory, cspl.Backend) {
	events := eventstore.NewInMemory()
	backend := cspl.NewKeccakBackend()
	return New(store.NewInMemory(), events, backend), events, backend
}

func TestService_Init(t *testing.T) {
	svc, events, backend := newService()
	owner := testIdentity(0x01)

	account, err := svc.Init(signedCtx(owner), owner)
	require.NoError(t, err)

	derived, err := addressing.ForBalance(owner)
	require.NoError(t, err)
	assert.Equal(t, derived.Address, account.Address)
	assert.Equal(t, derived.Bump, account.Bump)
	assert.Equal(t, backend.CommitOwner(owner), account.OwnerCommitment)
	assert.Equal(t, uint64(0), account.Nonce)
	assert.True(t, account.EncryptedBalance.IsZero())

	logged, err := events.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, event.KindBalanceInitialized, logged[0].Kind)
	assert.Equal(t, account.OwnerCommitment, logged[0].OwnerCommitment)
	assert.Equal(t, testNow, logged[0].Timestamp)
}

func TestService_Init_OwnerDefaultsToSigner(t *testing.T) {
	svc, _, _ := newService()
	owner := testIdentity(0x02)

	account, err := svc.Init(signedCtx(owner), domain.Identity{})
	require.NoError(t, err)

	derived, err := addressing.ForBalance(owner)
	require.NoError(t, err)
	assert.Equal(t, derived.Address, account.Address)
}

func TestService_Init_Duplicate(t *testing.T) {
	svc, events, _ := newService()
	owner := testIdentity(0x03)

	_, err := svc.Init(signedCtx(owner), owner)
	require.NoError(t, err)

	_, err = svc.Init(signedCtx(owner), owner)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyInitialized))

	// The failed attempt logged nothing.
	logged, err := events.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, logged, 1)
}

func TestService_Init_RequiresSigner(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Init(context.Background(), testIdentity(0x04))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingSigner))
}

func TestService_Init_SelfServiceOnly(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Init(signedCtx(testIdentity(0x05)), testIdentity(0x06))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestService_Get(t *testing.T) {
	svc, _, _ := newService()
	owner := testIdentity(0x07)

	_, err := svc.Get(context.Background(), owner)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccountNotInitialized))

	created, err := svc.Init(signedCtx(owner), owner)
	require.NoError(t, err)

	fetched, err := svc.Get(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, created.Address, fetched.Address)
	assert.Equal(t, created.OwnerCommitment, fetched.OwnerCommitment)
}
