package service

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/aussiebroadwan/carelink/pkg/jwtx"
	"github.com/google/uuid"
)

// IdentityService turns identity-provider tokens into principals with
// application roles.
type IdentityService struct {
	Verifier jwtx.Verifier
	Store    store.Store
}

// Resolve verifies a bearer token and loads the caller's roles.
func (s *IdentityService) Resolve(ctx context.Context, bearer string) (domain.Principal, error) {
	claims, err := s.Verifier.Verify(bearer)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return s.ResolveClaims(ctx, claims)
}

// ResolveClaims loads roles for already verified claims. The provider's
// user ids are UUIDs; anything else is rejected.
func (s *IdentityService) ResolveClaims(ctx context.Context, claims jwtx.Claims) (domain.Principal, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: subject is not a uuid", ErrUnauthenticated)
	}
	userID := id.String()

	roles, err := s.Store.Roles().ListRolesForUser(ctx, userID)
	if err != nil {
		return domain.Principal{}, unavailable("load roles", err)
	}

	valid := roles[:0]
	for _, r := range roles {
		if r.Valid() {
			valid = append(valid, r)
		}
	}

	return domain.Principal{UserID: userID, Email: claims.Email, Roles: valid}, nil
}
