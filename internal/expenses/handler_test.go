package expenses

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

func doRequest(t *testing.T, h http.Handler, method, path, body string, role shared.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 1, Role: role}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestExpenseHandlers(t *testing.T) {
	svc, _, _, _ := newTestService()
	r := chi.NewRouter()
	r.Route("/expenses", NewHandler(nil, svc, rbac.Middleware{}).MountRoutes)

	body := `{"title":"Diesel","category":"Transport","amount":1200.50,"expenseDate":"2024-10-02","paymentMethod":"cash"}`
	rr := doRequest(t, r, http.MethodPost, "/expenses", body, shared.RoleCashier)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, r, http.MethodPost, "/expenses", body, shared.RoleSuperAdmin)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created Expense
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "transport", created.Category)
	require.Equal(t, 2, created.ExpenseDate.Day())

	rr = doRequest(t, r, http.MethodPost, "/expenses", `{"title":"x","category":"y","amount":1,"expenseDate":"02/10/2024","paymentMethod":"cash"}`, shared.RoleSuperAdmin)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, r, http.MethodGet, "/expenses?category=transport", "", shared.RoleCashier)
	require.Equal(t, http.StatusOK, rr.Code)
	var page shared.Page[Expense]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)

	rr = doRequest(t, r, http.MethodPut, "/expenses/1", `{"notes":"weekly run"}`, shared.RoleSuperAdmin)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "weekly run")

	rr = doRequest(t, r, http.MethodDelete, "/expenses/1", "", shared.RoleSuperAdmin)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, r, http.MethodGet, "/expenses/1", "", shared.RoleCashier)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
