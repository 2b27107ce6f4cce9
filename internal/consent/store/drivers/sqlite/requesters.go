package sqlite

import (
	"context"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
)

type requestersRepo struct {
	db dbtx
}

func (r *requestersRepo) GetRequesterByID(ctx context.Context, id string) (domain.Requester, error) {
	var (
		req       domain.Requester
		role      string
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, role, account_id, created_at FROM requesters WHERE id = ?`, id,
	).Scan(&req.ID, &role, &req.AccountID, &createdAt)
	if err != nil {
		return domain.Requester{}, mapNotFound(err)
	}
	req.Role = domain.Role(role)
	req.CreatedAt = fromUnixNano(createdAt)
	return req, nil
}

func (r *requestersRepo) CreateRequester(ctx context.Context, req domain.Requester) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO requesters (id, role, account_id, created_at) VALUES (?, ?, ?, ?)`,
		req.ID, string(req.Role), req.AccountID, unixNano(req.CreatedAt),
	)
	return mapConstraint(err)
}
