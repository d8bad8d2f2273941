// Package domain defines the typed identifiers shared across the protocol.
//
// Identities are 32-byte ed25519 public keys; addresses are 32-byte values
// deterministically derived from seeds (see internal/addressing). Both render
// as base58 on the wire. Distinct Go types keep them from being mixed up at
// compile time.
package domain

import (
	"bytes"

	"github.com/mr-tron/base58"

	dErrors "veilpay/pkg/domain-errors"
)

// IdentityLen is the byte length of an owner identity (ed25519 public key).
const IdentityLen = 32

// AddressLen is the byte length of a derived account address.
const AddressLen = 32

// Identity is an owner's public key.
type Identity [IdentityLen]byte

// Address locates a stored record (balance account or mint registry).
type Address [AddressLen]byte

// ParseIdentity decodes a base58 identity, enforcing the 32-byte invariant.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "identity is not valid base58")
	}
	if len(raw) != IdentityLen {
		return Identity{}, dErrors.Newf(dErrors.CodeInvalidInput, "identity must be %d bytes, got %d", IdentityLen, len(raw))
	}
	var id Identity
	copy(id[:], raw)
	if id.IsZero() {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity must not be all zeroes")
	}
	return id, nil
}

// ParseAddress decodes a base58 address, enforcing the 32-byte invariant.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "address is not valid base58")
	}
	if len(raw) != AddressLen {
		return Address{}, dErrors.Newf(dErrors.CodeInvalidInput, "address must be %d bytes, got %d", AddressLen, len(raw))
	}
	var addr Address
	copy(addr[:], raw)
	return addr, nil
}

func (id Identity) String() string { return base58.Encode(id[:]) }

func (id Identity) IsZero() bool { return id == Identity{} }

func (a Address) String() string { return base58.Encode(a[:]) }

func (a Address) IsZero() bool { return a == Address{} }

// Less orders addresses lexicographically. Stores lock account rows in this
// order so concurrent transfers over the same pair cannot deadlock.
func (a Address) Less(other Address) bool {
	return bytes.Compare(a[:], other[:]) < 0
}
