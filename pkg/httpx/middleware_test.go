package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/carelink/pkg/httpx"
	"github.com/aussiebroadwan/carelink/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func token(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwtx.SignHS256(secret, jwtx.NewClaims(sub, "", "", []string{"authenticated"}, time.Hour, time.Now()))
	require.NoError(t, err)
	return tok
}

func TestAuthnMiddleware(t *testing.T) {
	v, err := jwtx.NewVerifierHS256(secret, "", []string{"authenticated"})
	require.NoError(t, err)

	resolver := httpx.IdentityResolverFunc(func(_ context.Context, c jwtx.Claims) (httpx.Identity, error) {
		switch c.Subject {
		case "unknown":
			return httpx.Identity{}, httpx.ErrUnauthenticated
		case "db-down":
			return httpx.Identity{}, errors.New("connection refused")
		}
		return httpx.Identity{UserID: c.Subject, Roles: []string{"partner"}}, nil
	})

	var seen httpx.Identity
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httpx.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), httpx.AuthnMiddleware(v, resolver), httpx.RequireAnyRole("partner"))

	do := func(authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing header", func(t *testing.T) {
		rec := do("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("garbage token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do("Bearer nope").Code)
	})

	t.Run("unknown subject", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do("Bearer "+token(t, "unknown")).Code)
	})

	t.Run("resolver failure", func(t *testing.T) {
		rec := do("Bearer " + token(t, "db-down"))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Contains(t, rec.Body.String(), "unavailable")
	})

	t.Run("ok", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, do("Bearer "+token(t, "user-1")).Code)
		require.Equal(t, "user-1", seen.UserID)
		require.True(t, seen.HasRole("partner"))
	})
}

func TestRequireAnyRole(t *testing.T) {
	h := httpx.RequireAnyRole("doctor", "super_admin")(okHandler())

	for _, tc := range []struct {
		name  string
		roles []string
		want  int
	}{
		{"none", nil, http.StatusForbidden},
		{"wrong role", []string{"partner"}, http.StatusForbidden},
		{"doctor", []string{"doctor"}, http.StatusOK},
		{"admin among others", []string{"patient", "super_admin"}, http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(httpx.ContextWithIdentity(req.Context(), httpx.Identity{UserID: "u", Roles: tc.roles}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("a"), mw("b"), mw("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Code string `json:"code"`
	}

	decode := func(raw string) (body, error) {
		var b body
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		err := httpx.DecodeJSON(httptest.NewRecorder(), req, &b)
		return b, err
	}

	b, err := decode(`{"code":"123456"}`)
	require.NoError(t, err)
	require.Equal(t, "123456", b.Code)

	_, err = decode(``)
	require.Error(t, err)
	_, err = decode(`{"code":"1","extra":true}`)
	require.Error(t, err)
	_, err = decode(`{"code":"1"}{"code":"2"}`)
	require.Error(t, err)
}
