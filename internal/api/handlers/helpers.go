package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"courier-backoffice-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: ve.Fields})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUniquenessViolation):
		writeError(w, r, http.StatusConflict, domain.ErrUniquenessViolation.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrReferenceNotFound):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, r, http.StatusForbidden, domain.ErrForbidden.Error())
	default:
		slog.ErrorContext(r.Context(), op+" failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads exactly one JSON object into v, rejecting unknown
// fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// MethodNotAllowed and NotFound replace chi's plain-text defaults.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found")
}
