package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/service"
	"github.com/aussiebroadwan/carelink/pkg/httpx"
	"github.com/aussiebroadwan/carelink/pkg/jwtx"
)

// identityResolver adapts the identity service to the authn middleware.
func identityResolver(s *service.IdentityService) httpx.IdentityResolver {
	return httpx.IdentityResolverFunc(func(ctx context.Context, c jwtx.Claims) (httpx.Identity, error) {
		p, err := s.ResolveClaims(ctx, c)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				return httpx.Identity{}, errors.Join(httpx.ErrUnauthenticated, err)
			}
			return httpx.Identity{}, err
		}

		roles := make([]string, len(p.Roles))
		for i, role := range p.Roles {
			roles[i] = role.String()
		}
		return httpx.Identity{UserID: p.UserID, Email: p.Email, Roles: roles}, nil
	})
}

// principal rebuilds the caller placed in the context by the authn middleware.
func principal(r *http.Request) (domain.Principal, bool) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok || id.UserID == "" {
		return domain.Principal{}, false
	}

	roles := make([]domain.Role, 0, len(id.Roles))
	for _, s := range id.Roles {
		if role := domain.Role(s); role.Valid() {
			roles = append(roles, role)
		}
	}
	return domain.Principal{UserID: id.UserID, Email: id.Email, Roles: roles}, true
}
