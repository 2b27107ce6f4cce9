package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
)

type challengesRepo struct {
	db dbtx
}

const challengeColumns = `id, requester_id, subject_id, code_hash, created_at, expires_at, verified, verified_at`

func scanChallenge(row rowScanner) (domain.Challenge, error) {
	var (
		c                    domain.Challenge
		createdAt, expiresAt int64
		verified             int
		verifiedAt           sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.RequesterID, &c.SubjectID, &c.CodeHash, &createdAt, &expiresAt, &verified, &verifiedAt)
	if err != nil {
		return domain.Challenge{}, err
	}
	c.CreatedAt = fromUnixNano(createdAt)
	c.ExpiresAt = fromUnixNano(expiresAt)
	c.Verified = verified != 0
	c.VerifiedAt = mapNullTimePtr(verifiedAt)
	return c, nil
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, c domain.Challenge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO challenges (`+challengeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RequesterID, c.SubjectID, c.CodeHash,
		unixNano(c.CreatedAt), unixNano(c.ExpiresAt), boolInt(c.Verified), mapOptionalTime(c.VerifiedAt),
	)
	return mapConstraint(err)
}

func (r *challengesRepo) GetChallengeByID(ctx context.Context, id string) (domain.Challenge, error) {
	c, err := scanChallenge(r.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id,
	))
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return c, nil
}

// LockPair is a no-op: transactions begin IMMEDIATE, which already holds
// the database write lock.
func (r *challengesRepo) LockPair(ctx context.Context, requesterID, subjectID string) error {
	return nil
}

func (r *challengesRepo) CountChallengesSince(ctx context.Context, requesterID, subjectID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM challenges WHERE requester_id = ? AND subject_id = ? AND created_at >= ?`,
		requesterID, subjectID, unixNano(since),
	).Scan(&n)
	return n, err
}

func (r *challengesRepo) OldestChallengeSince(ctx context.Context, requesterID, subjectID string, since time.Time) (time.Time, error) {
	var oldest sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MIN(created_at) FROM challenges WHERE requester_id = ? AND subject_id = ? AND created_at >= ?`,
		requesterID, subjectID, unixNano(since),
	).Scan(&oldest)
	if err != nil {
		return time.Time{}, err
	}
	if !oldest.Valid {
		return time.Time{}, store.ErrNotFound
	}
	return fromUnixNano(oldest.Int64), nil
}

func (r *challengesRepo) FindUsableChallenge(ctx context.Context, requesterID, subjectID, codeHash string, now time.Time) (domain.Challenge, error) {
	c, err := scanChallenge(r.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE requester_id = ? AND subject_id = ? AND code_hash = ?
		   AND verified = 0 AND expires_at > ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		requesterID, subjectID, codeHash, unixNano(now),
	))
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *challengesRepo) FindVerifiedChallenge(ctx context.Context, requesterID, subjectID, codeHash string, notBefore, now time.Time) (domain.Challenge, error) {
	var lower int64 // zero notBefore: every verified_at qualifies
	if !notBefore.IsZero() {
		lower = unixNano(notBefore)
	}
	c, err := scanChallenge(r.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE requester_id = ? AND subject_id = ? AND code_hash = ?
		   AND verified = 1 AND verified_at > ? AND expires_at > ?
		 ORDER BY verified_at DESC, id DESC
		 LIMIT 1`,
		requesterID, subjectID, codeHash, lower, unixNano(now),
	))
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *challengesRepo) MarkChallengeVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE challenges SET verified = 1, verified_at = ? WHERE id = ? AND verified = 0`,
		unixNano(at), id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
