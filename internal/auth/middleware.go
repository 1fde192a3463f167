package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/apperr"
)

// contextKey is a private type for request context values.
type contextKey string

const claimsContextKey = contextKey("auth_claims")

// Rejection messages returned in the 401 body.
const (
	MsgNoAuthHeader   = "No Authorization Header"
	MsgMalformedToken = "Invalid Token Format"
	MsgInvalidToken   = "Invalid Token"
)

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (*Claims, error)
}

// RejectionRecorder counts rejected requests by reason.
type RejectionRecorder interface {
	RecordAuthRejection(reason string)
}

// ExtractBearer returns the token from an Authorization header value of the
// form "Bearer <token>".
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", apperr.ErrNoAuthHeader
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", apperr.ErrMalformedHeader
	}
	return parts[1], nil
}

// Authenticate runs extract, parse and verify in order and stops at the
// first failure.
func Authenticate(v TokenVerifier, header string) (*Claims, error) {
	raw, err := ExtractBearer(header)
	if err != nil {
		return nil, err
	}
	return v.Verify(raw)
}

// RejectionMessage maps an Authenticate error to its response message.
func RejectionMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNoAuthHeader):
		return MsgNoAuthHeader
	case errors.Is(err, apperr.ErrMalformedHeader):
		return MsgMalformedToken
	default:
		return MsgInvalidToken
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNoAuthHeader):
		return "no_header"
	case errors.Is(err, apperr.ErrMalformedHeader):
		return "malformed_header"
	default:
		return "invalid_token"
	}
}

// Middleware admits requests carrying a valid bearer token.
type Middleware struct {
	verifier TokenVerifier
	logger   *zap.SugaredLogger
	recorder RejectionRecorder
}

// NewMiddleware builds the gate. recorder may be nil.
func NewMiddleware(v TokenVerifier, logger *zap.SugaredLogger, recorder RejectionRecorder) *Middleware {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Middleware{verifier: v, logger: logger, recorder: recorder}
}

// Require wraps next so it only runs for authenticated requests. The decoded
// claims are available to next through ClaimsFromContext.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := Authenticate(m.verifier, r.Header.Get("Authorization"))
		if err != nil {
			m.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// RequireFunc is Require for handler functions.
func (m *Middleware) RequireFunc(next http.HandlerFunc) http.Handler {
	return m.Require(next)
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	reason := rejectionReason(err)
	m.logger.Debugw("authorization rejected", append([]any{"path", r.URL.Path, "reason", reason}, apperr.LogFields(err)...)...)
	if m.recorder != nil {
		m.recorder.RecordAuthRejection(reason)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": RejectionMessage(err)})
}

// ClaimsFromContext returns the claims injected by Require.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*Claims)
	return c, ok && c != nil
}

// ContextWithClaims stores claims in ctx.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, c)
}
