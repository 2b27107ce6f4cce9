package domain

import "time"

// DefaultExpiringSoon is the advisory warning threshold for grants.
const DefaultExpiringSoon = 2 * time.Hour

// AccessGrant is a hard-expiring, revocable permission for a grantee to view
// a subject's records.
type AccessGrant struct {
	ID        string
	GranteeID string
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
	IsRevoked bool
	RevokedAt *time.Time
}

// IsValid is true only when the grant is unrevoked and now is before expiry.
func (g AccessGrant) IsValid(now time.Time) bool {
	return !g.IsRevoked && now.Before(g.ExpiresAt)
}

// TimeRemaining returns expiry minus now. ok is false once that is no longer
// positive, in which case the grant is expired.
func (g AccessGrant) TimeRemaining(now time.Time) (d time.Duration, ok bool) {
	d = g.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// IsExpiringSoon is advisory only; it never affects authorization.
func (g AccessGrant) IsExpiringSoon(now time.Time, threshold time.Duration) bool {
	if !g.IsValid(now) {
		return false
	}
	d, _ := g.TimeRemaining(now)
	return d < threshold
}
