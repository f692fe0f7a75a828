// Package middleware authenticates API requests.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/http/respond"
)

type contextKey struct{}

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Verify(ctx context.Context, token string) (audit.Identity, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				respond.Error(w, r, apperr.ErrUnauthorized)
				return
			}

			who, err := a.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), who)))
		})
	}
}

// RequireSuperuser only lets superusers through. It must run after
// Authenticate.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Identity(r.Context()).Superuser {
			respond.Error(w, r, apperr.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, who audit.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, who)
}

// Identity returns the authenticated caller, or the zero identity.
func Identity(ctx context.Context) audit.Identity {
	who, _ := ctx.Value(contextKey{}).(audit.Identity)
	return who
}
