package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/jobs"
)

func stubAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			httpx.RespondError(w, nil, shared.ErrUnauthorized)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), shared.Identity{UserID: 1, Role: shared.RoleCashier})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(cfg *Config) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterParams{
		Logger:       logger,
		Config:       cfg,
		Metrics:      observability.NewMetrics(),
		JobHandler:   jobs.NewHandler(nil, nil, rbac.Middleware{Logger: logger}, logger),
		Authenticate: stubAuthenticate,
	})
}

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter(&Config{RateLimitPerMinute: 100})

	rr := serve(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rr.Header().Get("X-Frame-Options"))

	rr = serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "odyssey_http_requests_total")

	rr = serve(router, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "route not found")
}

func TestRouterProtectedGroupRequiresToken(t *testing.T) {
	router := newTestRouter(&Config{RateLimitPerMinute: 100})

	rr := serve(router, http.MethodGet, "/jobs/health", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(router, http.MethodGet, "/jobs/health", "good")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"queue":"default"`)

	rr = serve(router, http.MethodPost, "/jobs/ledger-reconcile", "good")
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouterRateLimit(t *testing.T) {
	router := newTestRouter(&Config{RateLimitPerMinute: 2})

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", "").Code)
	rr := serve(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Contains(t, rr.Body.String(), "too many requests")
}
