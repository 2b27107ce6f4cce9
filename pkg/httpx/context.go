package httpx

import (
	"context"

	"github.com/aussiebroadwan/carelink/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyRoles    ctxKey = "roles"
	CtxKeyClaims   ctxKey = "claims"
	CtxKeyIdentity ctxKey = "identity"
)

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	UserID string
	Email  string
	Roles  []string
}

// HasRole reports whether the identity carries role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func contextWithAuth(ctx context.Context, c jwtx.Claims, id Identity) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, id.UserID)
	ctx = context.WithValue(ctx, CtxKeyRoles, id.Roles)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	ctx = context.WithValue(ctx, CtxKeyIdentity, id)
	return ctx
}

// IdentityFromContext returns the identity placed by AuthnMiddleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(CtxKeyIdentity).(Identity)
	return id, ok
}

// ContextWithIdentity is for tests that bypass AuthnMiddleware.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return contextWithAuth(ctx, jwtx.Claims{}, id)
}

func rolesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyRoles).([]string); ok {
		return v
	}
	return nil
}
