// Package domainerrors defines the protocol error taxonomy.
//
// Stores return sentinel errors (pkg/platform/sentinel) describing storage facts;
// services translate those into coded domain errors so transport layers can map
// them to wire responses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of protocol failure. The string value is the wire
// representation returned to clients.
type Code string

const (
	// CodeAlreadyInitialized rejects re-creation of a record that exists.
	// Callers retrying blindly must treat this as success.
	CodeAlreadyInitialized Code = "already_initialized"

	// CodeNotFound reports a missing record (mint registry fetch before init).
	CodeNotFound Code = "not_found"

	// CodeAccountNotInitialized reports a balance account that does not exist
	// at its derived address.
	CodeAccountNotInitialized Code = "account_not_initialized"

	// CodeUnauthorized rejects a signer that is not permitted to perform the
	// operation (wrong mint authority, third-party account creation).
	CodeUnauthorized Code = "unauthorized"

	// CodeUnauthorizedAccess rejects a transfer whose signer does not bind to
	// the sender account's owner commitment.
	CodeUnauthorizedAccess Code = "unauthorized_access"

	// CodeInvalidNonce covers both replayed (stale) and out-of-order (future)
	// nonces. The caller must refresh and resubmit.
	CodeInvalidNonce Code = "invalid_nonce"

	// CodeInvalidEncryption rejects ciphertexts that fail the shallow format
	// checks (wrong length, all-zero sentinel).
	CodeInvalidEncryption Code = "invalid_encryption_format"

	// CodeInsufficientBalance surfaces the confidentiality backend's
	// sufficiency rejection.
	CodeInsufficientBalance Code = "insufficient_balance"

	// CodeMissingSigner rejects requests submitted without a signature.
	CodeMissingSigner Code = "missing_signer"

	// CodeInvalidInput rejects malformed request payloads at the trust boundary.
	CodeInvalidInput Code = "invalid_input"

	// CodeInternal covers unexpected infrastructure failures. Details are
	// logged, never returned to clients.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
