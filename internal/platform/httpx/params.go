package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// DateLayout is the query string date format.
const DateLayout = "2006-01-02"

// IDParam parses a positive int64 URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewValidationError("invalid id format", map[string]string{name: raw})
	}
	return id, nil
}

// QueryInt64 parses an optional int64 query value.
func QueryInt64(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, shared.NewValidationError("invalid query parameter", map[string]string{key: raw})
	}
	return v, nil
}

// QueryDate parses an optional YYYY-MM-DD query value in loc.
func QueryDate(r *http.Request, key string, loc *time.Location) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return nil, shared.NewValidationError("invalid date, expected YYYY-MM-DD", map[string]string{key: raw})
	}
	return &t, nil
}

// QueryBool parses an optional boolean query value.
func QueryBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, shared.NewValidationError("invalid query parameter", map[string]string{key: raw})
	}
	return &v, nil
}
