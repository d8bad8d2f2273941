// Package httputil centralizes JSON response writing and domain error
// translation so every handler returns the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	dErrors "veilpay/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// statusByCode maps protocol error codes to HTTP statuses.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeAlreadyInitialized:    http.StatusConflict,
	dErrors.CodeNotFound:              http.StatusNotFound,
	dErrors.CodeAccountNotInitialized: http.StatusNotFound,
	dErrors.CodeUnauthorized:          http.StatusForbidden,
	dErrors.CodeUnauthorizedAccess:    http.StatusForbidden,
	dErrors.CodeInvalidNonce:          http.StatusConflict,
	dErrors.CodeInvalidEncryption:     http.StatusUnprocessableEntity,
	dErrors.CodeInsufficientBalance:   http.StatusUnprocessableEntity,
	dErrors.CodeMissingSigner:         http.StatusUnauthorized,
	dErrors.CodeInvalidInput:          http.StatusBadRequest,
	dErrors.CodeInternal:              http.StatusInternalServerError,
}

// ToHTTPStatus resolves the status for a code, defaulting to 500.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Decode reads a JSON request body into T and runs its validation tags.
// On failure it writes the error envelope and returns false.
func Decode[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "request body is not valid JSON"))
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "invalid request: %v", err))
		return nil, false
	}
	return &req, true
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors omit the description so infrastructure details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) && de.Message != "" {
		body["error_description"] = de.Message
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}
