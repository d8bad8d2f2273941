// Package event defines the append-only notification log.
//
// Events are a side output of the same atomic operation that mutates state:
// the engine appends them inside the transaction that updates accounts, so an
// event exists if and only if the corresponding mutation committed. A relay
// worker later fans committed events out to external consumers (Kafka topic,
// Redis activity feed) for indexers and the wallet UI.
package event

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two event shapes.
type Kind string

const (
	KindBalanceInitialized Kind = "balance_initialized"
	KindPrivateTransfer    Kind = "private_transfer"
)

// Transfer event type discriminants, carried for downstream filtering.
const (
	TypeTransfer uint8 = 0
	TypeMint     uint8 = 1
	TypeBurn     uint8 = 2
	TypeDeposit  uint8 = 3
)

// Event is one committed log entry. Only privacy-safe metadata is included:
// no amounts, no sender or receiver identities. The routing tag lets the
// intended receiver detect the transfer locally; the commitment hash lets
// auditors verify it without learning its contents.
type Event struct {
	ID   uuid.UUID
	Seq  uint64 // commit sequence; doubles as the log height
	Kind Kind

	// BalanceInitialized payload.
	OwnerCommitment [32]byte

	// PrivateTransfer payload.
	CommitmentHash [32]byte
	RoutingTag     [32]byte
	EventType      uint8
	SenderBump     uint8

	Timestamp time.Time
}

// NewBalanceInitialized builds the account-creation event.
func NewBalanceInitialized(ownerCommitment [32]byte, ts time.Time) *Event {
	return &Event{
		ID:              uuid.New(),
		Kind:            KindBalanceInitialized,
		OwnerCommitment: ownerCommitment,
		Timestamp:       ts,
	}
}

// NewPrivateTransfer builds the transfer event.
func NewPrivateTransfer(commitmentHash, routingTag [32]byte, senderBump uint8, ts time.Time) *Event {
	return &Event{
		ID:             uuid.New(),
		Kind:           KindPrivateTransfer,
		CommitmentHash: commitmentHash,
		RoutingTag:     routingTag,
		EventType:      TypeTransfer,
		SenderBump:     senderBump,
		Timestamp:      ts,
	}
}

// Wire is the JSON shape published to external consumers and served on the
// activity feed. Binary fields render as hex.
type Wire struct {
	ID              string `json:"id"`
	Height          uint64 `json:"height"`
	Kind            string `json:"kind"`
	OwnerCommitment string `json:"owner_commitment,omitempty"`
	CommitmentHash  string `json:"commitment_hash,omitempty"`
	RoutingTag      string `json:"routing_tag,omitempty"`
	EventType       *uint8 `json:"event_type,omitempty"`
	SenderBump      *uint8 `json:"sender_bump,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}

// ToWire converts an event to its external representation.
func (e *Event) ToWire() Wire {
	w := Wire{
		ID:        e.ID.String(),
		Height:    e.Seq,
		Kind:      string(e.Kind),
		Timestamp: e.Timestamp.Unix(),
	}
	switch e.Kind {
	case KindBalanceInitialized:
		w.OwnerCommitment = hex.EncodeToString(e.OwnerCommitment[:])
	case KindPrivateTransfer:
		w.CommitmentHash = hex.EncodeToString(e.CommitmentHash[:])
		w.RoutingTag = hex.EncodeToString(e.RoutingTag[:])
		eventType, senderBump := e.EventType, e.SenderBump
		w.EventType = &eventType
		w.SenderBump = &senderBump
	}
	return w
}
