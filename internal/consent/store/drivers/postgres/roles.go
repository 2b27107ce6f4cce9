package postgres

import (
	"context"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/jackc/pgx/v5"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) ListRolesForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	rows, err := r.db.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	roles := make([]domain.Role, len(names))
	for i, n := range names {
		roles[i] = domain.Role(n)
	}
	return roles, nil
}

func (r *rolesRepo) AssignRole(ctx context.Context, userID string, role domain.Role) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT (user_id, role) DO NOTHING`,
		userID, string(role),
	)
	return err
}
