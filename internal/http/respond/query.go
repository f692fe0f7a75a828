package respond

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/apperr"
)

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Invalid(key, "must be true or false")
	}

	return &v, nil
}

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}

	v, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperr.Invalid(key, "must be a YYYY-MM-DD date")
	}

	return &v, nil
}

// QueryID parses an optional UUID query parameter.
func QueryID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}

	v, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Invalid(key, "must be a valid id")
	}

	return &v, nil
}
