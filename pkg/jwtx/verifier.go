package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrAlgMismatch  = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrUnverifiable = errors.New("jwtx: token cannot be verified")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// ByAlgorithm routes HS256 tokens to the shared-secret verifier and
// everything else to the key-set verifier. Either side may be nil, in which
// case tokens for it are rejected with ErrAlgMismatch.
type ByAlgorithm struct {
	HS256      Verifier
	Asymmetric Verifier
}

func (b ByAlgorithm) Verify(tokenStr string) (Claims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenUnverifiable) {
			return Claims{}, ErrAlgMismatch
		}
		return Claims{}, ErrMalformed
	}

	next := b.Asymmetric
	if token.Method.Alg() == jwt.SigningMethodHS256.Alg() {
		next = b.HS256
	}
	if next == nil {
		return Claims{}, ErrAlgMismatch
	}
	return next.Verify(tokenStr)
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrUnverifiable, err)
	}
	return fmt.Errorf("jwtx: parse or verify: %w", err)
}

func validateClaims(c *Claims, issuer string, aud []string, now time.Time, leeway time.Duration) error {
	if c.Subject == "" {
		return ErrInvalidClaim
	}
	if err := c.ValidateIssuer(issuer); err != nil {
		return err
	}
	if err := c.ValidateAudience(aud); err != nil {
		return err
	}
	return c.ValidateExpiryAt(now, leeway)
}
