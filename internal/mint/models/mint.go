package models

import (
	"time"

	"veilpay/pkg/domain"
)

// ConfigLen is the size of the opaque backend configuration blob.
const ConfigLen = 64

// Registry is the scheme's single global record. It anchors trust for future
// backend re-configuration; it gates nothing on the transfer path.
//
// Invariants: exactly one instance exists per deployment, created once and
// never destroyed. Re-initialization is rejected loudly, not ignored.
type Registry struct {
	Address   domain.Address
	Authority domain.Identity
	Config    [ConfigLen]byte
	Bump      uint8
	CreatedAt time.Time
}

func New(address domain.Address, authority domain.Identity, config [ConfigLen]byte, bump uint8, now time.Time) *Registry {
	return &Registry{
		Address:   address,
		Authority: authority,
		Config:    config,
		Bump:      bump,
		CreatedAt: now,
	}
}

// Clone returns a copy so store internals never alias service-visible state.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
