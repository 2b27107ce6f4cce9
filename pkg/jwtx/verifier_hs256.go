package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength guards against toy secrets in configuration.
const MinSecretLength = 32

// HS256Verifier validates tokens signed with the identity provider's shared
// JWT secret.
type HS256Verifier struct {
	secret []byte
	issuer string
	aud    []string
	leeway time.Duration
	now    func() time.Time
}

// HS256Option customises an HS256Verifier.
type HS256Option func(*HS256Verifier)

// WithLeeway allows small clock skew on exp/nbf.
func WithLeeway(d time.Duration) HS256Option {
	return func(v *HS256Verifier) { v.leeway = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) HS256Option {
	return func(v *HS256Verifier) { v.now = now }
}

func NewVerifierHS256(secret []byte, issuer string, aud []string, opts ...HS256Option) (*HS256Verifier, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwtx: HS256 secret must be at least %d bytes", MinSecretLength)
	}
	v := &HS256Verifier{
		secret: secret,
		issuer: issuer,
		aud:    aud,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(), // exp/nbf/iss/aud are checked below against our clock
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}
	if err := validateClaims(claims, v.issuer, v.aud, v.now().UTC(), v.leeway); err != nil {
		return Claims{}, err
	}
	return *claims, nil
}

// SignHS256 mints a token with the shared secret. The service itself never
// issues tokens; this exists for tests and local development.
func SignHS256(secret []byte, c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}
