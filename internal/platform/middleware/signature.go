package middleware

import (
	"bytes"
	"crypto/ed25519"
	"io"
	"log/slog"
	"net/http"

	"github.com/mr-tron/base58"

	"veilpay/internal/cspl"
	"veilpay/pkg/domain"
	dErrors "veilpay/pkg/domain-errors"
	"veilpay/pkg/platform/httputil"
	"veilpay/pkg/requestcontext"
)

// Signature headers. The signer is a base58 ed25519 public key; the signature
// covers SigningMessage for the request.
const (
	HeaderSigner    = "X-Veilpay-Signer"
	HeaderSignature = "X-Veilpay-Signature"
)

// SigningMessage is the canonical byte string a client signs:
// method, newline, path, newline, keccak-256 of the request body.
func SigningMessage(method, path string, body []byte) []byte {
	digest := cspl.Keccak256(body)
	msg := make([]byte, 0, len(method)+len(path)+2+len(digest))
	msg = append(msg, method...)
	msg = append(msg, '\n')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	msg = append(msg, digest[:]...)
	return msg
}

// Signature verifies the request signature when the headers are present and
// injects the verified signer into the context. Requests without the headers
// pass through unsigned; RequireSigner decides per route whether that is
// acceptable. An invalid signature always fails the request.
func Signature(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signerHeader := r.Header.Get(HeaderSigner)
			signatureHeader := r.Header.Get(HeaderSignature)
			if signerHeader == "" && signatureHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			if signerHeader == "" || signatureHeader == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeMissingSigner, "both signer and signature headers are required"))
				return
			}

			signer, err := domain.ParseIdentity(signerHeader)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "malformed signer identity"))
				return
			}
			sig, err := base58.Decode(signatureHeader)
			if err != nil || len(sig) != ed25519.SignatureSize {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "malformed signature"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			msg := SigningMessage(r.Method, r.URL.Path, body)
			if !ed25519.Verify(ed25519.PublicKey(signer[:]), msg, sig) {
				logger.WarnContext(r.Context(), "signature verification failed",
					"request_id", requestcontext.RequestID(r.Context()),
					"signer", signer.String(),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "signature verification failed"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSigner(r.Context(), signer)))
		})
	}
}

// RequireSigner guards routes that need an authenticated signer.
func RequireSigner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.Signer(r.Context()).IsZero() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeMissingSigner, "request is not signed"))
			return
		}
		next(w, r)
	}
}
