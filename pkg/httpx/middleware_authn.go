package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/carelink/pkg/jwtx"
	"github.com/aussiebroadwan/carelink/pkg/slogx"
)

// ErrUnauthenticated is returned by an IdentityResolver when the token is
// well-formed but does not identify a usable account.
var ErrUnauthenticated = errors.New("httpx: unauthenticated")

// IdentityResolver turns verified claims into an Identity, usually by
// looking up the caller's roles.
type IdentityResolver interface {
	Resolve(ctx context.Context, c jwtx.Claims) (Identity, error)
}

// IdentityResolverFunc adapts a plain function to IdentityResolver.
type IdentityResolverFunc func(ctx context.Context, c jwtx.Claims) (Identity, error)

func (f IdentityResolverFunc) Resolve(ctx context.Context, c jwtx.Claims) (Identity, error) {
	return f(ctx, c)
}

func AuthnMiddleware(v jwtx.Verifier, resolver IdentityResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Warn("jwt verify failed", "err", err)
				return
			}

			id, err := resolver.Resolve(ctx, claims)
			switch {
			case errors.Is(err, ErrUnauthenticated):
				writeBearerError(w, "unknown subject")
				log.Warn("identity rejected", "sub", claims.Subject, "err", err)
				return
			case err != nil:
				log.Error("identity lookup failed", "sub", claims.Subject, "err", err)
				ErrServiceUnavailable.WriteError(w)
				return
			}

			ctx = contextWithAuth(ctx, claims, id)
			ctx = slogx.With(ctx, "user_id", id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
