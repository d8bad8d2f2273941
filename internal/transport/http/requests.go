package httptransport

import (
	"encoding/hex"

	"veilpay/internal/cspl"
	"veilpay/internal/mint/models"
	"veilpay/pkg/domain"
	dErrors "veilpay/pkg/domain-errors"
)

// InitializeMintRequest is the body for POST /v1/mint. Config carries the
// hex-encoded 64-byte settlement backend configuration blob.
type InitializeMintRequest struct {
	Config string `json:"config" validate:"required,hexadecimal,len=128"`
}

func (r *InitializeMintRequest) ParsedConfig() ([models.ConfigLen]byte, error) {
	var out [models.ConfigLen]byte
	if err := decodeHex(out[:], r.Config, "config"); err != nil {
		return out, err
	}
	return out, nil
}

// InitBalanceRequest is the body for POST /v1/balances. Owner is optional;
// when omitted the account is created for the request signer.
type InitBalanceRequest struct {
	Owner string `json:"owner,omitempty"`
}

func (r *InitBalanceRequest) ParsedOwner() (domain.Identity, error) {
	if r.Owner == "" {
		return domain.Identity{}, nil
	}
	return domain.ParseIdentity(r.Owner)
}

// TransferRequest is the body for POST /v1/transfers. Account addresses are
// optional: when omitted they are derived from the signer and receiver
// identities. All fixed-size binary fields travel hex-encoded.
type TransferRequest struct {
	Receiver        string `json:"receiver" validate:"required"`
	SenderAccount   string `json:"sender_account,omitempty"`
	ReceiverAccount string `json:"receiver_account,omitempty"`
	EncryptedAmount string `json:"encrypted_amount" validate:"required,hexadecimal,len=128"`
	ExpectedNonce   uint64 `json:"expected_nonce"`
	CommitmentHash  string `json:"commitment_hash" validate:"required,hexadecimal,len=64"`
	RoutingTag      string `json:"routing_tag" validate:"required,hexadecimal,len=64"`
}

func (r *TransferRequest) ParsedReceiver() (domain.Identity, error) {
	return domain.ParseIdentity(r.Receiver)
}

func (r *TransferRequest) ParsedEncryptedAmount() (cspl.Ciphertext, error) {
	raw, err := hex.DecodeString(r.EncryptedAmount)
	if err != nil {
		return cspl.Ciphertext{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "encrypted_amount is not valid hex")
	}
	ct, err := cspl.CiphertextFromBytes(raw)
	if err != nil {
		return cspl.Ciphertext{}, dErrors.Wrap(err, dErrors.CodeInvalidEncryption, "encrypted_amount has the wrong length")
	}
	return ct, nil
}

func (r *TransferRequest) ParsedCommitmentHash() ([32]byte, error) {
	var out [32]byte
	if err := decodeHex(out[:], r.CommitmentHash, "commitment_hash"); err != nil {
		return out, err
	}
	return out, nil
}

func (r *TransferRequest) ParsedRoutingTag() ([32]byte, error) {
	var out [32]byte
	if err := decodeHex(out[:], r.RoutingTag, "routing_tag"); err != nil {
		return out, err
	}
	return out, nil
}

// decodeHex fills dst from the hex string s, enforcing the exact length.
func decodeHex(dst []byte, s, field string) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s is not valid hex", field)
	}
	if len(raw) != len(dst) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s must be %d bytes", field, len(dst))
	}
	copy(dst, raw)
	return nil
}
