package httptransport

import (
	"encoding/hex"
	"time"

	balancemodels "veilpay/internal/balance/models"
	mintmodels "veilpay/internal/mint/models"
)

// MintResponse is the wire view of the mint registry.
type MintResponse struct {
	Address   string    `json:"address"`
	Authority string    `json:"authority"`
	Config    string    `json:"config"`
	Bump      uint8     `json:"bump"`
	CreatedAt time.Time `json:"created_at"`
}

func toMintResponse(registry *mintmodels.Registry) MintResponse {
	return MintResponse{
		Address:   registry.Address.String(),
		Authority: registry.Authority.String(),
		Config:    hex.EncodeToString(registry.Config[:]),
		Bump:      registry.Bump,
		CreatedAt: registry.CreatedAt,
	}
}

// AccountResponse is the wire view of a balance account. The owner identity
// never appears; only its commitment does.
type AccountResponse struct {
	Address          string    `json:"address"`
	OwnerCommitment  string    `json:"owner_commitment"`
	EncryptedBalance string    `json:"encrypted_balance"`
	Nonce            uint64    `json:"nonce"`
	Bump             uint8     `json:"bump"`
	CreatedAt        time.Time `json:"created_at"`
}

func toAccountResponse(account *balancemodels.Account) AccountResponse {
	return AccountResponse{
		Address:          account.Address.String(),
		OwnerCommitment:  hex.EncodeToString(account.OwnerCommitment[:]),
		EncryptedBalance: hex.EncodeToString(account.EncryptedBalance[:]),
		Nonce:            account.Nonce,
		Bump:             account.Bump,
		CreatedAt:        account.CreatedAt,
	}
}

// TransferResponse returns both post-transfer account views so the sender can
// refresh its nonce without a second read.
type TransferResponse struct {
	Sender   AccountResponse `json:"sender"`
	Receiver AccountResponse `json:"receiver"`
}
