package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/marmos91/dittodav/internal/logger"
	"github.com/marmos91/dittodav/pkg/auth"
)

// UserResolver verifies Basic credentials.
type UserResolver interface {
	ResolveByNameAndPassword(ctx context.Context, name, password string) (*auth.User, error)
}

// BasicAuth rejects requests without valid Basic credentials with 401 and
// a WWW-Authenticate challenge for realm. On success the user is stored on
// the request context.
func BasicAuth(realm string, resolver UserResolver) func(http.Handler) http.Handler {
	challenge := fmt.Sprintf("Basic realm=%q", realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			name, password, ok := r.BasicAuth()
			if !ok {
				logger.DebugCtx(ctx, "Missing Basic credentials")
				unauthorized(w, challenge)
				return
			}

			user, err := resolver.ResolveByNameAndPassword(ctx, name, password)
			if err != nil {
				if errors.Is(err, auth.ErrRemoteService) {
					logger.ErrorCtx(ctx, "Login failed, identity service unavailable", logger.Username(name), logger.Err(err))
				} else {
					logger.InfoCtx(ctx, "Login rejected", logger.Username(name))
				}
				unauthorized(w, challenge)
				return
			}

			ctx = context.WithValue(ctx, userKey, user)
			if lc := logger.FromContext(ctx); lc != nil {
				ctx = logger.WithContext(ctx, lc.WithUsername(user.Name))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user authenticated by BasicAuth, or nil.
func UserFromContext(ctx context.Context) *auth.User {
	u, _ := ctx.Value(userKey).(*auth.User)
	return u
}

func unauthorized(w http.ResponseWriter, challenge string) {
	w.Header().Set("WWW-Authenticate", challenge)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}
