package cspl

import (
	"encoding/binary"

	"veilpay/pkg/domain"
)

// KeccakBackend is the deterministic placeholder backend. It mimics the shape
// of an ElGamal scheme (two 32-byte halves) with keccak digests so that all
// parties derive identical ciphertexts for identical inputs, which is what the
// conformance tests exercise.
//
// Known limitation: this backend cannot conserve value. AssertSpendable only
// distinguishes never-credited balances from credited ones, so a real
// confidentiality co-processor must replace it before the protocol can enforce
// value-accurate insufficient-balance rejection. Do not bolt a plaintext
// comparison on top; that would defeat the confidentiality boundary.
type KeccakBackend struct{}

var _ Backend = KeccakBackend{}

func NewKeccakBackend() KeccakBackend { return KeccakBackend{} }

func (KeccakBackend) CommitOwner(owner domain.Identity) [32]byte {
	return Keccak256(owner[:])
}

func (KeccakBackend) EncryptAmount(amount uint64) Ciphertext {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], amount)

	c1 := Keccak256(le[:], []byte("c1"))
	c2 := Keccak256(le[:], []byte("c2"))

	var out Ciphertext
	copy(out[:HalfLen], c1[:])
	copy(out[HalfLen:], c2[:])
	return out
}

// AssertSpendable applies the stand-in sufficiency rule: a balance that has
// never been credited (the all-zero sentinel) cannot cover anything, and any
// credited balance covers everything. Value-accurate rejection requires the
// real backend.
func (KeccakBackend) AssertSpendable(balance, amount Ciphertext) error {
	if amount.IsZero() {
		return ErrInvalidEncryption
	}
	if balance.IsZero() {
		return ErrInsufficientBalance
	}
	return nil
}

func (KeccakBackend) Debit(balance, amount Ciphertext) (Ciphertext, error) {
	return combine(balance, amount, func(a, b byte) byte { return a - b })
}

func (KeccakBackend) Credit(balance, amount Ciphertext) (Ciphertext, error) {
	return combine(balance, amount, func(a, b byte) byte { return a + b })
}

func (KeccakBackend) CommitmentHash(amount Ciphertext, nonce uint64, receiver domain.Identity) [32]byte {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], nonce)
	return Keccak256(amount[:], le[:], receiver[:])
}

func (KeccakBackend) RoutingTag(receiver domain.Identity, senderSecret [32]byte) [32]byte {
	return Keccak256(receiver[:], senderSecret[:])
}

// combine applies op byte-wise to both ciphertext halves. Byte arithmetic
// wraps, standing in for the homomorphic operation of a real backend.
func combine(balance, amount Ciphertext, op func(a, b byte) byte) (Ciphertext, error) {
	var out Ciphertext
	for i := 0; i < CiphertextLen; i++ {
		out[i] = op(balance[i], amount[i])
	}
	commitment := Keccak256(out[:HalfLen], out[HalfLen:])
	if commitment == [32]byte{} {
		return Ciphertext{}, ErrInvalidEncryption
	}
	return out, nil
}
