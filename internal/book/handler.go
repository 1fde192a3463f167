package book

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
)

const msgNotFound = "Document not found"

// MutationRecorder counts successful create, update and delete calls.
type MutationRecorder interface {
	RecordBookMutation(op string)
}

// Handler exposes the book catalog over HTTP.
type Handler struct {
	svc     *Service
	logger  *zap.SugaredLogger
	metrics MutationRecorder
}

func NewHandler(svc *Service, logger *zap.SugaredLogger, metrics MutationRecorder) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: metrics}
}

// List answers 404 when the catalog is empty.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, "list books", err)
		return
	}
	if len(books) == 0 {
		http.Error(w, msgNotFound, http.StatusNotFound)
		return
	}
	views := make([]entity.View, 0, len(books))
	for _, b := range books {
		views = append(views, b.Present())
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decode(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Create(r.Context(), f)
	if err != nil {
		h.fail(w, "create book", err)
		return
	}
	h.record("create")
	h.writeJSON(w, http.StatusOK, b.Present())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "get book", err)
		return
	}
	h.writeJSON(w, http.StatusOK, b.Present())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decode(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Update(r.Context(), r.PathValue("id"), f)
	if err != nil {
		h.fail(w, "update book", err)
		return
	}
	h.record("update")
	h.writeJSON(w, http.StatusOK, b.Present())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.DeleteByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "delete book", err)
		return
	}
	h.record("delete")
	h.writeJSON(w, http.StatusOK, b.Present())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (entity.Fields, bool) {
	var f entity.Fields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		h.logger.Debugw("invalid book payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return f, false
	}
	return f, true
}

// fail maps service errors to responses. Validation and malformed ids stay a
// generic 500 with the message in the body.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		h.logger.Debugw(op+" failed", apperr.LogFields(err)...)
		http.Error(w, msgNotFound, http.StatusNotFound)
	case errors.Is(err, apperr.ErrStorageUnavailable):
		h.logger.Warnw(op+" failed", apperr.LogFields(err)...)
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidIdentifier):
		h.logger.Warnw(op+" failed", apperr.LogFields(err)...)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		h.logger.Errorw(op+" failed", apperr.LogFields(err)...)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": op + " failed"})
	}
}

func (h *Handler) record(op string) {
	if h.metrics != nil {
		h.metrics.RecordBookMutation(op)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
