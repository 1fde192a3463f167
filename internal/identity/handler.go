package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/apperr"
)

// EventRecorder counts signup and signin outcomes.
type EventRecorder interface {
	RecordIdentityEvent(op, outcome string)
}

// Handler exposes HTTP endpoints for identity operations (signup / signin / signout).
type Handler struct {
	svc     *Service
	logger  *zap.SugaredLogger
	metrics EventRecorder
}

func NewHandler(svc *Service, logger *zap.SugaredLogger, metrics EventRecorder) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: metrics}
}

// SignupRequest request body for signup endpoint.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninRequest request body for signin endpoint.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by signup and signin.
type SessionResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	sess, err := h.svc.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.record("signup", err)
		// validation and duplicate failures stay a generic 500, as clients of
		// this API already expect
		status, msg := http.StatusInternalServerError, err.Error()
		if errors.Is(err, apperr.ErrStorageUnavailable) {
			status, msg = http.StatusServiceUnavailable, "storage unavailable"
		}
		h.logger.Warnw("signup failed", apperr.LogFields(err)...)
		h.writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	h.record("signup", nil)
	h.writeJSON(w, http.StatusOK, toResponse(sess))
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid signin payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	sess, err := h.svc.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.record("signin", err)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			h.logger.Debugw("signin failed", apperr.LogFields(err)...)
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Email not found"})
		case errors.Is(err, apperr.ErrInvalidCredentials):
			h.logger.Debugw("signin failed", apperr.LogFields(err)...)
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		case errors.Is(err, apperr.ErrStorageUnavailable):
			h.logger.Warnw("signin failed", apperr.LogFields(err)...)
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
		default:
			h.logger.Warnw("signin failed", apperr.LogFields(err)...)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "signin failed"})
		}
		return
	}
	h.record("signin", nil)
	h.writeJSON(w, http.StatusOK, toResponse(sess))
}

func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Signout())
}

func (h *Handler) record(op string, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordIdentityEvent(op, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrValidation):
		return "validation"
	case errors.Is(err, apperr.ErrDuplicateIdentity):
		return "duplicate"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, apperr.ErrStorageUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func toResponse(s *Session) SessionResponse {
	return SessionResponse{Token: s.Token, Name: s.Identity.Name, Email: s.Identity.Email}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
