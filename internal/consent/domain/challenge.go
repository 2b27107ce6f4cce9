package domain

import "time"

// Challenge is one issued one-time code. Only the code's fingerprint is kept.
type Challenge struct {
	ID          string
	RequesterID string
	SubjectID   string
	CodeHash    string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Verified    bool
	VerifiedAt  *time.Time
}

// UsableAt reports whether the challenge can still be verified at now.
func (c Challenge) UsableAt(now time.Time) bool {
	return !c.Verified && now.Before(c.ExpiresAt)
}

// ChallengeHandle is what the caller gets back after issuance. It never
// contains the code.
type ChallengeHandle struct {
	ID          string
	SubjectID   string
	ExpiresAt   time.Time
	Destination string // masked delivery address
}
