package domain

import "time"

// ConsentLink records that a requester may act on a subject's records.
type ConsentLink struct {
	ID          string
	RequesterID string
	SubjectID   string
	ConsentedAt time.Time
	Consent     bool
	RevokedAt   *time.Time
}

// Active reports whether the link currently authorizes the requester.
func (l ConsentLink) Active() bool {
	return l.Consent
}

// LinkStatus is the outcome of RequestLink and ConfirmLink.
type LinkStatus string

const (
	LinkStatusChallengeIssued LinkStatus = "challenge_issued"
	LinkStatusLinked          LinkStatus = "linked"
)

// LinkRequestResult carries either a challenge handle or a direct link.
type LinkRequestResult struct {
	Status    LinkStatus
	SubjectID string
	Challenge *ChallengeHandle
}
