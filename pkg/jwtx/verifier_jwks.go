package jwtx

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// asymmetricMethods are the algorithms the identity provider signs with
// when it publishes a JWKS.
var asymmetricMethods = []string{
	jwt.SigningMethodES256.Alg(),
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodEdDSA.Alg(),
}

// JWKSVerifier validates tokens signed with one of the identity provider's
// published asymmetric keys.
type JWKSVerifier struct {
	keys   *RemoteKeySet
	issuer string
	aud    []string
	leeway time.Duration
	now    func() time.Time
}

func NewVerifierJWKS(keys *RemoteKeySet, issuer string, aud []string, leeway time.Duration) *JWKSVerifier {
	return &JWKSVerifier{keys: keys, issuer: issuer, aud: aud, leeway: leeway, now: time.Now}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *JWKSVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods(asymmetricMethods),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		key, err := v.keys.Key(ctx, kid)
		if err != nil {
			return nil, fmt.Errorf("jwtx: unknown kid %q: %w", kid, err)
		}
		if !keyMatchesMethod(key, t.Method) {
			return nil, fmt.Errorf("jwtx: key %q cannot verify %s", kid, t.Method.Alg())
		}
		return key, nil
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

func keyMatchesMethod(key any, m jwt.SigningMethod) bool {
	switch key.(type) {
	case *ecdsa.PublicKey:
		return m.Alg() == jwt.SigningMethodES256.Alg()
	case *rsa.PublicKey:
		return m.Alg() == jwt.SigningMethodRS256.Alg()
	case ed25519.PublicKey:
		return m.Alg() == jwt.SigningMethodEdDSA.Alg()
	}
	return false
}
