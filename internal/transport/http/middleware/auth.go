package middleware

import (
	"context"
	"net/http"

	"github.com/baechuer/contacts-api/internal/application/auth"
)

type Authorizer interface {
	Authorize(ctx context.Context, header string) (auth.Identity, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Auth resolves Authorization: Bearer <token> to the account holding that
// session. Any failure ends the request; the handler never runs.
func Auth(authz Authorizer, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authz.Authorize(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
