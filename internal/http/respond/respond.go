// Package respond writes JSON responses and maps service errors to HTTP
// status codes.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/user"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes err with the status its kind maps to. Unexpected errors are
// logged and reported without detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperr.ValidationError

	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: verr.Field})
	case errors.Is(err, apperr.ErrNotFound):
		JSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, apperr.ErrConcurrencyConflict):
		JSON(w, http.StatusConflict, errorResponse{Error: "conflicting update, retry"})
	case errors.Is(err, user.ErrEmailTaken):
		JSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Field: "email"})
	case errors.Is(err, apperr.ErrUnauthorized), errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrInvalidResetToken):
		JSON(w, http.StatusUnauthorized, errorResponse{Error: unauthorizedMessage(err)})
	case errors.Is(err, user.ErrLockedOut):
		JSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		JSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func unauthorizedMessage(err error) string {
	if errors.Is(err, apperr.ErrUnauthorized) {
		return "unauthorized"
	}

	return err.Error()
}

// Decode reads a JSON body into v. Malformed bodies are validation errors.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return apperr.Invalid("", "malformed request body: "+err.Error())
	}

	return nil
}

// ID parses a path parameter as a UUID.
func ID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Invalid("id", fmt.Sprintf("%q is not a valid id", raw))
	}

	return id, nil
}
