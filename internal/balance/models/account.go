package models

import (
	"time"

	"veilpay/internal/cspl"
	"veilpay/pkg/domain"
	dErrors "veilpay/pkg/domain-errors"
)

// Account is a confidential balance account, the unit of concurrency control.
//
// Invariants:
//   - OwnerCommitment is immutable after creation
//   - Nonce starts at 0 and increases by exactly 1 per participation
//     (as sender or receiver); it is the sole replay/ordering guard
//   - EncryptedBalance is always 64 bytes and is never interpreted here
//   - Bump records the derivation attempt that produced Address, for
//     re-verification by indexers
//
// Lifecycle: Nonexistent -> Initialized; Initialized is terminal (no close).
type Account struct {
	Address          domain.Address
	OwnerCommitment  [32]byte
	EncryptedBalance cspl.Ciphertext
	Nonce            uint64
	Bump             uint8
	CreatedAt        time.Time
}

// New returns a zeroed account: nonce 0, all-zero ciphertext, the owner bound
// through its commitment.
func New(address domain.Address, ownerCommitment [32]byte, bump uint8, now time.Time) *Account {
	return &Account{
		Address:         address,
		OwnerCommitment: ownerCommitment,
		Bump:            bump,
		CreatedAt:       now,
	}
}

// OwnedBy reports whether commitment matches the account's owner binding.
func (a *Account) OwnedBy(commitment [32]byte) bool {
	return a.OwnerCommitment == commitment
}

// CheckNonce enforces the optimistic-concurrency guard: the claimed nonce must
// equal the current nonce exactly. A lower claim is a replay of a committed
// transfer; a higher claim is an out-of-order submission.
func (a *Account) CheckNonce(claimed uint64) error {
	if claimed != a.Nonce {
		return dErrors.Newf(dErrors.CodeInvalidNonce, "expected nonce %d, got %d", a.Nonce, claimed)
	}
	return nil
}

// ApplyBalance installs the backend-recomputed ciphertext and records the
// account's participation by advancing the nonce.
func (a *Account) ApplyBalance(next cspl.Ciphertext) {
	a.EncryptedBalance = next
	a.Nonce++
}

// Clone returns a copy; stores hand copies to engine callbacks so a failed
// operation never leaves partial mutations behind.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
