// Package cspl is the boundary to the confidential settlement backend.
//
// The protocol core never interprets balances: they are fixed-size opaque
// ciphertexts produced, combined, and eventually validated by an external
// confidential-computation service. This package defines that boundary as an
// interface plus the deterministic placeholder used until the real backend is
// integrated. Everything arithmetic-adjacent lives behind Backend; the engine
// only stores and forwards ciphertexts.
package cspl

import (
	"errors"

	"golang.org/x/crypto/sha3"

	"veilpay/pkg/domain"
)

const (
	// CiphertextLen is the size of an encrypted amount or balance.
	CiphertextLen = 64
	// HalfLen is the size of each ElGamal-style ciphertext half.
	HalfLen = 32
)

// Backend boundary errors. The transfer engine translates these into coded
// domain errors; nothing else inspects them.
var (
	ErrInsufficientBalance = errors.New("cspl: insufficient balance")
	ErrInvalidEncryption   = errors.New("cspl: invalid encryption format")
)

// Ciphertext is an opaque 64-byte encrypted value. The zero value is the
// uninitialized-client sentinel and is never a valid amount.
type Ciphertext [CiphertextLen]byte

// IsZero reports whether the ciphertext is the all-zero sentinel.
func (c Ciphertext) IsZero() bool { return c == Ciphertext{} }

// CiphertextFromBytes copies b into a Ciphertext, enforcing the length invariant.
func CiphertextFromBytes(b []byte) (Ciphertext, error) {
	if len(b) != CiphertextLen {
		return Ciphertext{}, ErrInvalidEncryption
	}
	var c Ciphertext
	copy(c[:], b)
	return c, nil
}

// Backend produces and combines ciphertexts and owner commitments.
//
// Implementations must be deterministic for a given input so that independently
// derived commitments agree. The engine trusts the backend for value
// correctness; it cannot verify it (no plaintext ever crosses this boundary).
type Backend interface {
	// CommitOwner binds an owner identity to a 32-byte commitment stored on
	// the account record in place of the raw identity.
	CommitOwner(owner domain.Identity) [32]byte

	// EncryptAmount produces the ciphertext for a plaintext amount. Only
	// clients and tests call this; the engine never sees amounts.
	EncryptAmount(amount uint64) Ciphertext

	// AssertSpendable reports ErrInsufficientBalance when balance cannot cover
	// amount, and ErrInvalidEncryption for malformed ciphertexts.
	AssertSpendable(balance, amount Ciphertext) error

	// Debit returns the balance ciphertext after subtracting amount.
	Debit(balance, amount Ciphertext) (Ciphertext, error)

	// Credit returns the balance ciphertext after adding amount.
	Credit(balance, amount Ciphertext) (Ciphertext, error)

	// CommitmentHash binds an encrypted amount, sender nonce, and receiver
	// into the 32-byte hash carried by transfer events.
	CommitmentHash(amount Ciphertext, nonce uint64, receiver domain.Identity) [32]byte

	// RoutingTag derives the 32-byte tag that lets a receiver detect its
	// transfers in the event stream without revealing itself to observers.
	RoutingTag(receiver domain.Identity, senderSecret [32]byte) [32]byte
}

// Keccak256 hashes the concatenation of the given byte slices. Shared by the
// placeholder backend, address derivation, and request signing.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
