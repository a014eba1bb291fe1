// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validation *shared.ValidationError
	switch {
	case errors.As(err, &validation):
		Error(w, http.StatusBadRequest, validation.Message, validation.Details)
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrUnauthorized):
		Error(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, shared.ErrForbidden):
		Error(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Error(w, http.StatusConflict, err.Error(), nil)
	default:
		if logger != nil {
			logger.Error("request failed", slog.Any("error", err))
		}
		Error(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
