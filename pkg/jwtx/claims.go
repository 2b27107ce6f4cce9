package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims minted by the hosted identity provider.
// Only the fields the consent service reads are modelled; anything else in
// the token is ignored.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the signed-in account, informational only.
	Email string `json:"email,omitempty"`

	// Role is the provider-level role ("authenticated", "anon",
	// "service_role"). Application roles live in the role directory.
	Role string `json:"role,omitempty"`

	// SessionID ties the token to a provider session.
	SessionID string `json:"session_id,omitempty"`
}

// RoleAuthenticated is the provider role carried by signed-in users.
const RoleAuthenticated = "authenticated"

// NewClaims builds minimally-correct claims. Mostly used by tests and the
// local token command.
func NewClaims(subject, email, issuer string, audience []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  RoleAuthenticated,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiryAt checks exp and nbf against now with the given leeway.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
