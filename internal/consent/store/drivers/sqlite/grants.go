package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
)

type grantsRepo struct {
	db dbtx
}

const grantColumns = `id, grantee_id, subject_id, issued_at, expires_at, is_revoked, revoked_at`

func scanGrant(row rowScanner) (domain.AccessGrant, error) {
	var (
		g                   domain.AccessGrant
		issuedAt, expiresAt int64
		revoked             int
		revokedAt           sql.NullInt64
	)
	if err := row.Scan(&g.ID, &g.GranteeID, &g.SubjectID, &issuedAt, &expiresAt, &revoked, &revokedAt); err != nil {
		return domain.AccessGrant{}, err
	}
	g.IssuedAt = fromUnixNano(issuedAt)
	g.ExpiresAt = fromUnixNano(expiresAt)
	g.IsRevoked = revoked != 0
	g.RevokedAt = mapNullTimePtr(revokedAt)
	return g, nil
}

func (r *grantsRepo) CreateGrant(ctx context.Context, g domain.AccessGrant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_grants (`+grantColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.GranteeID, g.SubjectID, unixNano(g.IssuedAt), unixNano(g.ExpiresAt),
		boolInt(g.IsRevoked), mapOptionalTime(g.RevokedAt),
	)
	return mapConstraint(err)
}

func (r *grantsRepo) GetGrantByID(ctx context.Context, id string) (domain.AccessGrant, error) {
	g, err := scanGrant(r.db.QueryRowContext(ctx,
		`SELECT `+grantColumns+` FROM access_grants WHERE id = ?`, id,
	))
	if err != nil {
		return domain.AccessGrant{}, mapNotFound(err)
	}
	return g, nil
}

func (r *grantsRepo) ListValidGrants(ctx context.Context, granteeID string, now time.Time) ([]domain.AccessGrant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+grantColumns+` FROM access_grants
		 WHERE grantee_id = ? AND is_revoked = 0 AND expires_at > ?
		 ORDER BY expires_at ASC, id ASC`,
		granteeID, unixNano(now),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AccessGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *grantsRepo) HasValidGrant(ctx context.Context, granteeID, subjectID string, now time.Time) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM access_grants
		   WHERE grantee_id = ? AND subject_id = ? AND is_revoked = 0 AND expires_at > ?
		 )`,
		granteeID, subjectID, unixNano(now),
	).Scan(&exists)
	return exists != 0, err
}

func (r *grantsRepo) RevokeGrant(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE access_grants SET is_revoked = 1, revoked_at = ? WHERE id = ? AND is_revoked = 0`,
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
