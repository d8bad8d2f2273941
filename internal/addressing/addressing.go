// Package addressing derives record addresses from fixed seeds so any party
// can locate an account without a directory lookup. Balance accounts derive
// from ("balance", owner); the mint registry derives from ("mint"). Derivation
// is scoped to the protocol identifier, so other deployments of the same seeds
// produce unrelated addresses.
//
// Operations must re-derive and verify caller-supplied addresses rather than
// trust them; Verify* exist for exactly that.
package addressing

import (
	"errors"

	"github.com/mr-tron/base58"

	"veilpay/internal/cspl"
	"veilpay/pkg/domain"
)

// Seeds for the two record kinds.
const (
	MintSeed    = "mint"
	BalanceSeed = "balance"
)

// protocolID scopes all derivations to this deployment of the protocol.
var protocolID = mustProtocolID("6pYu5mRNehST4KkwUzcEKt47Km9qNAvmCtdRtTjEanDG")

// ErrNoValidBump is returned when no bump in [0,255] yields a valid address.
// With a 1/256 skip probability per candidate this is effectively unreachable.
var ErrNoValidBump = errors.New("addressing: no valid bump for seeds")

// Derived is a derivation result: the address plus the bump that produced it.
// The bump is persisted on the account so indexers can re-verify the address
// without rescanning.
type Derived struct {
	Address domain.Address
	Bump    uint8
}

// ForBalance derives the canonical balance account address for an owner.
func ForBalance(owner domain.Identity) (Derived, error) {
	return derive([][]byte{[]byte(BalanceSeed), owner[:]})
}

// ForMint derives the mint registry address.
func ForMint() (Derived, error) {
	return derive([][]byte{[]byte(MintSeed)})
}

// VerifyBalance reports whether addr is the canonical derived address for owner.
func VerifyBalance(addr domain.Address, owner domain.Identity) bool {
	d, err := ForBalance(owner)
	return err == nil && d.Address == addr
}

// VerifyMint reports whether addr is the canonical mint registry address.
func VerifyMint(addr domain.Address) bool {
	d, err := ForMint()
	return err == nil && d.Address == addr
}

// derive scans bumps from 255 downward and returns the first candidate whose
// trailing byte is non-zero. The skip mirrors the off-curve requirement of the
// execution environment's program-derived addresses: some candidates are
// unusable and the bump records which attempt succeeded.
func derive(seeds [][]byte) (Derived, error) {
	input := make([]byte, 0, 96)
	for _, s := range seeds {
		input = append(input, s...)
	}
	for bump := 255; bump >= 0; bump-- {
		candidate := cspl.Keccak256(input, []byte{byte(bump)}, protocolID[:])
		if candidate[31] == 0 {
			continue
		}
		return Derived{Address: domain.Address(candidate), Bump: uint8(bump)}, nil
	}
	return Derived{}, ErrNoValidBump
}

func mustProtocolID(s string) [32]byte {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 32 {
		panic("addressing: invalid protocol identifier")
	}
	var id [32]byte
	copy(id[:], raw)
	return id
}
