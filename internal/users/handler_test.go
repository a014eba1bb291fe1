package users

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

func TestUserHandlers(t *testing.T) {
	svc, _, revoker := newTestService()
	router := chi.NewRouter()
	router.Route("/users", NewHandler(nil, svc, rbac.Middleware{}).MountRoutes)

	do := func(method, path, body string, role shared.Role) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 99, Role: role}))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodGet, "/users", "", shared.RoleAdmin)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(http.MethodPost, "/users", `{"name":"Neha","email":"neha@shop.in","password":"password1","role":"cashier"}`, shared.RoleSuperAdmin)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotContains(t, rr.Body.String(), "password")
	var created User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = do(http.MethodPost, "/users", `{"name":"Neha","email":"neha","password":"password1","role":"cashier"}`, shared.RoleSuperAdmin)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodPut, "/users/1", `{"role":"admin"}`, shared.RoleSuperAdmin)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"role":"admin"`)

	rr = do(http.MethodDelete, "/users/1", "", shared.RoleSuperAdmin)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"isActive":false`)
	require.Equal(t, []int64{created.ID, created.ID}, revoker.revoked)

	rr = do(http.MethodGet, "/users/42", "", shared.RoleSuperAdmin)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
