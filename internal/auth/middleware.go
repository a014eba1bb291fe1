package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type tokenContextKey struct{}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticator resolves bearer tokens into request identities.
type Authenticator interface {
	Resolve(ctx context.Context, token string) (shared.Identity, error)
}

// RequireIdentity rejects requests without a live bearer token and attaches the identity otherwise.
func RequireIdentity(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				httpx.RespondError(w, logger, shared.ErrUnauthorized)
				return
			}
			id, err := authn.Resolve(r.Context(), token)
			if err != nil {
				httpx.RespondError(w, logger, err)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), id)
			ctx = context.WithValue(ctx, tokenContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}
