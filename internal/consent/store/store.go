package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrNestedTx      = errors.New("store: nested transactions are not supported")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this and expose sub-repositories so a Tx-scoped store can be
// handed to the same code that works against the pool.
type Store interface {
	Subjects() Subjects
	Requesters() Requesters
	Roles() Roles
	Challenges() Challenges
	Links() Links
	Grants() Grants

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Subjects interface {
	GetSubjectByID(ctx context.Context, id string) (domain.Subject, error)

	// FindSubject matches exactly one column selected by kind. No partial or
	// case-folded matching is done.
	FindSubject(ctx context.Context, kind domain.LookupKind, value string) (domain.Subject, error)

	// CreateSubject returns ErrAlreadyExists on a short code collision.
	CreateSubject(ctx context.Context, s domain.Subject) error
}

type Requesters interface {
	GetRequesterByID(ctx context.Context, id string) (domain.Requester, error)
	CreateRequester(ctx context.Context, r domain.Requester) error
}

type Roles interface {
	// ListRolesForUser returns the user's roles, empty if none.
	ListRolesForUser(ctx context.Context, userID string) ([]domain.Role, error)

	// AssignRole is idempotent.
	AssignRole(ctx context.Context, userID string, role domain.Role) error
}

type Challenges interface {
	CreateChallenge(ctx context.Context, c domain.Challenge) error
	GetChallengeByID(ctx context.Context, id string) (domain.Challenge, error)

	// LockPair serialises issuance for one (requester, subject) pair until
	// the surrounding transaction ends. Only meaningful inside a Tx.
	LockPair(ctx context.Context, requesterID, subjectID string) error

	// CountChallengesSince counts challenges for the pair with created_at >= since.
	CountChallengesSince(ctx context.Context, requesterID, subjectID string, since time.Time) (int, error)

	// OldestChallengeSince returns the created_at of the oldest challenge for
	// the pair with created_at >= since, or ErrNotFound.
	OldestChallengeSince(ctx context.Context, requesterID, subjectID string, since time.Time) (time.Time, error)

	// FindUsableChallenge returns the newest unverified, unexpired challenge
	// for the pair whose code fingerprint matches.
	FindUsableChallenge(ctx context.Context, requesterID, subjectID, codeHash string, now time.Time) (domain.Challenge, error)

	// FindVerifiedChallenge returns the newest verified, unexpired challenge
	// for the pair whose code fingerprint matches and that was verified
	// strictly after notBefore (zero means no lower bound).
	FindVerifiedChallenge(ctx context.Context, requesterID, subjectID, codeHash string, notBefore, now time.Time) (domain.Challenge, error)

	// MarkChallengeVerified flips verified false->true. It reports false
	// when the challenge was already verified.
	MarkChallengeVerified(ctx context.Context, id string, at time.Time) (bool, error)
}

type Links interface {
	GetLink(ctx context.Context, requesterID, subjectID string) (domain.ConsentLink, error)

	// UpsertLink activates the (requester, subject) link. An already active
	// link is left untouched, so repeated calls never create a second row.
	UpsertLink(ctx context.Context, l domain.ConsentLink) error

	// RevokeLink clears consent on an active link. It reports false when
	// there was nothing active to revoke.
	RevokeLink(ctx context.Context, requesterID, subjectID string, at time.Time) (bool, error)

	// ListActiveLinks returns active links, newest consent first.
	ListActiveLinks(ctx context.Context, requesterID string) ([]domain.ConsentLink, error)
}

type Grants interface {
	CreateGrant(ctx context.Context, g domain.AccessGrant) error
	GetGrantByID(ctx context.Context, id string) (domain.AccessGrant, error)

	// ListValidGrants returns unrevoked grants expiring after now, soonest first.
	ListValidGrants(ctx context.Context, granteeID string, now time.Time) ([]domain.AccessGrant, error)

	// HasValidGrant reports whether any unrevoked, unexpired grant exists.
	HasValidGrant(ctx context.Context, granteeID, subjectID string, now time.Time) (bool, error)

	// RevokeGrant flips is_revoked false->true. It reports false when the
	// grant was already revoked.
	RevokeGrant(ctx context.Context, id string, at time.Time) (bool, error)
}
