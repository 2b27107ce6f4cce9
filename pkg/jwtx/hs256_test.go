package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/carelink/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newVerifier(t *testing.T, now time.Time) *jwtx.HS256Verifier {
	t.Helper()
	v, err := jwtx.NewVerifierHS256(testSecret, "https://idp.test/auth/v1", []string{"authenticated"},
		jwtx.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	return v
}

func sign(t *testing.T, c jwtx.Claims) string {
	t.Helper()
	tok, err := jwtx.SignHS256(testSecret, c)
	require.NoError(t, err)
	return tok
}

func TestHS256RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	v := newVerifier(t, now)

	c := jwtx.NewClaims("4b0f7c52-0d8e-4a53-9a43-111111111111", "p@example.com",
		"https://idp.test/auth/v1", []string{"authenticated"}, time.Hour, now)

	got, err := v.Verify(sign(t, c))
	require.NoError(t, err)
	require.Equal(t, c.Subject, got.Subject)
	require.Equal(t, "p@example.com", got.Email)
	require.Equal(t, jwtx.RoleAuthenticated, got.Role)
}

func TestHS256Rejections(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	v := newVerifier(t, now)
	base := func() jwtx.Claims {
		return jwtx.NewClaims("sub-1", "", "https://idp.test/auth/v1", []string{"authenticated"}, time.Hour, now)
	}

	t.Run("expired", func(t *testing.T) {
		c := base()
		c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
		_, err := v.Verify(sign(t, c))
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := base()
		c.NotBefore = jwt.NewNumericDate(now.Add(time.Minute))
		_, err := v.Verify(sign(t, c))
		require.ErrorIs(t, err, jwtx.ErrNotYetValid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := base()
		c.Issuer = "someone-else"
		_, err := v.Verify(sign(t, c))
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := base()
		c.Audience = jwt.ClaimStrings{"anon"}
		_, err := v.Verify(sign(t, c))
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("missing subject", func(t *testing.T) {
		c := base()
		c.Subject = ""
		_, err := v.Verify(sign(t, c))
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("bad signature", func(t *testing.T) {
		tok, err := jwtx.SignHS256([]byte("ffffffffffffffffffffffffffffffff"), base())
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := v.Verify("not.a.jwt")
		require.Error(t, err)
		_, err = v.Verify(strings.Repeat("x", 10))
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("alg none", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, base()).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.Error(t, err)
	})
}

func TestHS256Leeway(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	v, err := jwtx.NewVerifierHS256(testSecret, "", nil,
		jwtx.WithLeeway(30*time.Second),
		jwtx.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	c := jwtx.NewClaims("sub-1", "", "", nil, time.Hour, now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(-10 * time.Second))

	_, err = v.Verify(sign(t, c))
	require.NoError(t, err)
}

func TestNewVerifierHS256_ShortSecret(t *testing.T) {
	_, err := jwtx.NewVerifierHS256([]byte("short"), "", nil)
	require.Error(t, err)
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Audience: []string{"authenticated", "media"}}}

	require.NoError(t, c.ValidateAudience([]string{"authenticated"}))
	require.NoError(t, c.ValidateAudience([]string{"foo", "media"}))
	require.NoError(t, c.ValidateAudience(nil))
	require.ErrorIs(t, c.ValidateAudience([]string{"admin"}), jwtx.ErrAudience)
}
