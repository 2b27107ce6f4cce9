package postgres

import (
	"context"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
)

type requestersRepo struct {
	db dbtx
}

func (r *requestersRepo) GetRequesterByID(ctx context.Context, id string) (domain.Requester, error) {
	var (
		req  domain.Requester
		role string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, role, account_id, created_at FROM requesters WHERE id = $1`, id,
	).Scan(&req.ID, &role, &req.AccountID, &req.CreatedAt)
	if err != nil {
		return domain.Requester{}, mapNotFound(err)
	}
	req.Role = domain.Role(role)
	req.CreatedAt = req.CreatedAt.UTC()
	return req, nil
}

func (r *requestersRepo) CreateRequester(ctx context.Context, req domain.Requester) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO requesters (id, role, account_id, created_at) VALUES ($1, $2, $3, $4)`,
		req.ID, string(req.Role), req.AccountID, req.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}
