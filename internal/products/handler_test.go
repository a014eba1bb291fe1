package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/products", NewHandler(nil, svc, rbac.Middleware{}).MountRoutes)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, role shared.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req = req.WithContext(shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 1, Role: role}))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerCreateRequiresSuperAdmin(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRepo(), nil, nil, nil))
	body := `{"sku":"P-1","name":"Rice","price":10.5,"quantity":4}`

	rr := doRequest(t, router, http.MethodPost, "/products", body, shared.RoleCashier)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, router, http.MethodPost, "/products", body, shared.RoleSuperAdmin)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "P-1", created.SKU)
	require.Equal(t, StatusLowStock, created.Status)
}

func TestHandlerCreateValidation(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRepo(), nil, nil, nil))
	rr := doRequest(t, router, http.MethodPost, "/products", `{"name":"No SKU"}`, shared.RoleSuperAdmin)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	details := body["details"].(map[string]any)
	require.Contains(t, details, "sku")
	require.Contains(t, details, "price")
}

func TestHandlerShowBadID(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRepo(), nil, nil, nil))
	rr := doRequest(t, router, http.MethodGet, "/products/abc", "", shared.RoleCashier)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = doRequest(t, router, http.MethodGet, "/products/42", "", shared.RoleCashier)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
