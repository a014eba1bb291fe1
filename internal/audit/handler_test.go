package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func get(t *testing.T, h http.Handler, path string, role shared.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 1, Role: role}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestTimelineHandler(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{row(1, "2024-03-08T08:00:00Z", "bill.created", "bill", "12")}}
	r := chi.NewRouter()
	r.Route("/audit-logs", NewHandler(nil, NewService(repo), rbac.Middleware{}, nil).MountRoutes)

	rr := get(t, r, "/audit-logs", shared.RoleAdmin)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = get(t, r, "/audit-logs?entity=bill&from=2024-03-01&to=2024-03-08", shared.RoleSuperAdmin)
	require.Equal(t, http.StatusOK, rr.Code)
	var result Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	require.Len(t, result.Rows, 1)
	require.Equal(t, "bill.created", result.Rows[0].Action)
	require.Equal(t, 9, repo.lastRun.To.Day())

	rr = get(t, r, "/audit-logs?from=2024-03-10&to=2024-03-01", shared.RoleSuperAdmin)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = get(t, r, "/audit-logs?actorId=abc", shared.RoleSuperAdmin)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
