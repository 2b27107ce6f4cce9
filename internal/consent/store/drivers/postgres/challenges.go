package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/jackc/pgx/v5"
)

type challengesRepo struct {
	db dbtx
}

const challengeColumns = `id, requester_id, subject_id, code_hash, created_at, expires_at, verified, verified_at`

func scanChallenge(row pgx.Row) (domain.Challenge, error) {
	var c domain.Challenge
	err := row.Scan(&c.ID, &c.RequesterID, &c.SubjectID, &c.CodeHash, &c.CreatedAt, &c.ExpiresAt, &c.Verified, &c.VerifiedAt)
	if err != nil {
		return domain.Challenge{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.ExpiresAt = c.ExpiresAt.UTC()
	if c.VerifiedAt != nil {
		v := c.VerifiedAt.UTC()
		c.VerifiedAt = &v
	}
	return c, nil
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, c domain.Challenge) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO challenges (`+challengeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.RequesterID, c.SubjectID, c.CodeHash, c.CreatedAt.UTC(), c.ExpiresAt.UTC(), c.Verified, c.VerifiedAt,
	)
	return mapConstraint(err)
}

func (r *challengesRepo) GetChallengeByID(ctx context.Context, id string) (domain.Challenge, error) {
	c, err := scanChallenge(r.db.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return c, nil
}

// LockPair takes a transaction-scoped advisory lock on the pair.
func (r *challengesRepo) LockPair(ctx context.Context, requesterID, subjectID string) error {
	_, err := r.db.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`,
		requesterID, subjectID,
	)
	return err
}

func (r *challengesRepo) CountChallengesSince(ctx context.Context, requesterID, subjectID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM challenges WHERE requester_id = $1 AND subject_id = $2 AND created_at >= $3`,
		requesterID, subjectID, since.UTC(),
	).Scan(&n)
	return n, err
}

func (r *challengesRepo) OldestChallengeSince(ctx context.Context, requesterID, subjectID string, since time.Time) (time.Time, error) {
	var oldest *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT MIN(created_at) FROM challenges WHERE requester_id = $1 AND subject_id = $2 AND created_at >= $3`,
		requesterID, subjectID, since.UTC(),
	).Scan(&oldest)
	if err != nil {
		return time.Time{}, err
	}
	if oldest == nil {
		return time.Time{}, store.ErrNotFound
	}
	return oldest.UTC(), nil
}

func (r *challengesRepo) FindUsableChallenge(ctx context.Context, requesterID, subjectID, codeHash string, now time.Time) (domain.Challenge, error) {
	c, err := scanChallenge(r.db.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE requester_id = $1 AND subject_id = $2 AND code_hash = $3
		   AND NOT verified AND expires_at > $4
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		requesterID, subjectID, codeHash, now.UTC(),
	))
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *challengesRepo) FindVerifiedChallenge(ctx context.Context, requesterID, subjectID, codeHash string, notBefore, now time.Time) (domain.Challenge, error) {
	var lower *time.Time
	if !notBefore.IsZero() {
		nb := notBefore.UTC()
		lower = &nb
	}
	c, err := scanChallenge(r.db.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE requester_id = $1 AND subject_id = $2 AND code_hash = $3
		   AND verified AND ($4::timestamptz IS NULL OR verified_at > $4) AND expires_at > $5
		 ORDER BY verified_at DESC, id DESC
		 LIMIT 1`,
		requesterID, subjectID, codeHash, lower, now.UTC(),
	))
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *challengesRepo) MarkChallengeVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE challenges SET verified = TRUE, verified_at = $1 WHERE id = $2 AND NOT verified`,
		at.UTC(), id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
