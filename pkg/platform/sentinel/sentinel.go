package sentinel

import "errors"

// Sentinel errors for storage facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about records, not protocol decisions:
// - ErrNotFound: record does not exist in the store
// - ErrAlreadyExists: record already present at the target address
// - ErrStaleRead: record changed between read and write; should not occur under
//   the store's locking discipline and is treated as an internal fault
// - ErrUnavailable: backing store temporarily unreachable
//
// Protocol failures (nonce mismatch, authorization) never originate in stores;
// the engine produces those from pkg/domain-errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrStaleRead     = errors.New("stale read")
	ErrUnavailable   = errors.New("unavailable")
)
