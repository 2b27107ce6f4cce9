package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/jackc/pgx/v5"
)

type grantsRepo struct {
	db dbtx
}

const grantColumns = `id, grantee_id, subject_id, issued_at, expires_at, is_revoked, revoked_at`

func scanGrant(row pgx.Row) (domain.AccessGrant, error) {
	var g domain.AccessGrant
	if err := row.Scan(&g.ID, &g.GranteeID, &g.SubjectID, &g.IssuedAt, &g.ExpiresAt, &g.IsRevoked, &g.RevokedAt); err != nil {
		return domain.AccessGrant{}, err
	}
	g.IssuedAt = g.IssuedAt.UTC()
	g.ExpiresAt = g.ExpiresAt.UTC()
	if g.RevokedAt != nil {
		v := g.RevokedAt.UTC()
		g.RevokedAt = &v
	}
	return g, nil
}

func (r *grantsRepo) CreateGrant(ctx context.Context, g domain.AccessGrant) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO access_grants (`+grantColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.GranteeID, g.SubjectID, g.IssuedAt.UTC(), g.ExpiresAt.UTC(), g.IsRevoked, g.RevokedAt,
	)
	return mapConstraint(err)
}

func (r *grantsRepo) GetGrantByID(ctx context.Context, id string) (domain.AccessGrant, error) {
	g, err := scanGrant(r.db.QueryRow(ctx, `SELECT `+grantColumns+` FROM access_grants WHERE id = $1`, id))
	if err != nil {
		return domain.AccessGrant{}, mapNotFound(err)
	}
	return g, nil
}

func (r *grantsRepo) ListValidGrants(ctx context.Context, granteeID string, now time.Time) ([]domain.AccessGrant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+grantColumns+` FROM access_grants
		 WHERE grantee_id = $1 AND NOT is_revoked AND expires_at > $2
		 ORDER BY expires_at ASC, id ASC`,
		granteeID, now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AccessGrant, error) {
		return scanGrant(row)
	})
}

func (r *grantsRepo) HasValidGrant(ctx context.Context, granteeID, subjectID string, now time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM access_grants
		   WHERE grantee_id = $1 AND subject_id = $2 AND NOT is_revoked AND expires_at > $3
		 )`,
		granteeID, subjectID, now.UTC(),
	).Scan(&exists)
	return exists, err
}

func (r *grantsRepo) RevokeGrant(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE access_grants SET is_revoked = TRUE, revoked_at = $1 WHERE id = $2 AND NOT is_revoked`,
		at.UTC(), id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
