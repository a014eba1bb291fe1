package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func serveWith(t *testing.T, mw func(http.Handler) http.Handler, id *shared.Identity) int {
	t.Helper()
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/customers", nil)
	if id != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), *id))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRequireAny(t *testing.T) {
	m := Middleware{}
	gate := m.SuperAdmin()

	require.Equal(t, http.StatusUnauthorized, serveWith(t, gate, nil))
	require.Equal(t, http.StatusForbidden, serveWith(t, gate, &shared.Identity{UserID: 2, Role: shared.RoleCashier}))
	require.Equal(t, http.StatusForbidden, serveWith(t, gate, &shared.Identity{UserID: 3, Role: shared.RoleAdmin}))
	require.Equal(t, http.StatusNoContent, serveWith(t, gate, &shared.Identity{UserID: 1, Role: shared.RoleSuperAdmin}))
}

func TestRequireAnyMultipleRoles(t *testing.T) {
	gate := Middleware{}.RequireAny(shared.RoleAdmin, " SUPER_ADMIN ")
	require.Equal(t, http.StatusNoContent, serveWith(t, gate, &shared.Identity{Role: shared.RoleAdmin}))
	require.Equal(t, http.StatusNoContent, serveWith(t, gate, &shared.Identity{Role: shared.RoleSuperAdmin}))
	require.Equal(t, http.StatusForbidden, serveWith(t, gate, &shared.Identity{Role: shared.RoleCashier}))
}
