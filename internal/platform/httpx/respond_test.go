package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", shared.NewValidationError("bad input", []string{"total"}), http.StatusBadRequest},
		{"not found", shared.NotFound("bill"), http.StatusNotFound},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized},
		{"credentials", shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden},
		{"idempotency", shared.ErrIdempotencyConflict, http.StatusConflict},
		{"server", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, nil, tc.err)
			require.Equal(t, tc.status, rr.Code)
			body := decodeBody(t, rr)
			require.NotEmpty(t, body["message"])
		})
	}
}

func TestRespondErrorHidesServerDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, nil, errors.New("pq: relation bills does not exist"))
	body := decodeBody(t, rr)
	require.Equal(t, "internal server error", body["message"])
	_, hasDetails := body["details"]
	require.False(t, hasDetails)
}

func TestValidationDetailsUseJSONNames(t *testing.T) {
	type payload struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"omitempty,email"`
	}
	err := Validate(NewValidator(), payload{Email: "nope"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	details := verr.Details.(map[string]string)
	require.Equal(t, "is required", details["name"])
	require.Equal(t, "must be a valid email", details["email"])
}

func TestDecodeJSONRejectsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var target map[string]any
	err := DecodeJSON(req, &target)
	require.True(t, shared.IsValidation(err))
}
