package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Middleware wires role authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current user holds at least one of the given roles.
// Requests without an identity are rejected with 401, wrong roles with 403.
func (m Middleware) RequireAny(roles ...shared.Role) func(http.Handler) http.Handler {
	allowed := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, m.Logger, shared.ErrUnauthorized)
				return
			}
			if len(allowed) == 0 || hasAnyRole(id.Role, allowed) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied",
					slog.Int64("user_id", id.UserID),
					slog.String("role", string(id.Role)),
					slog.String("path", r.URL.Path),
				)
			}
			httpx.RespondError(w, m.Logger, shared.ErrForbidden)
		})
	}
}

// SuperAdmin gates mutating catalog, customer, expense and user endpoints.
func (m Middleware) SuperAdmin() func(http.Handler) http.Handler {
	return m.RequireAny(shared.RoleSuperAdmin)
}

func normalizeRoles(roles []shared.Role) map[shared.Role]struct{} {
	unique := make(map[shared.Role]struct{}, len(roles))
	for _, r := range roles {
		r = shared.Role(strings.TrimSpace(strings.ToLower(string(r))))
		if r == "" {
			continue
		}
		unique[r] = struct{}{}
	}
	return unique
}

func hasAnyRole(role shared.Role, allowed map[shared.Role]struct{}) bool {
	_, ok := allowed[role]
	return ok
}
