package postgres

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/jackc/pgx/v5"
)

type subjectsRepo struct {
	db dbtx
}

const subjectColumns = `id, short_code, email, phone, owner_account_id, created_at`

func scanSubject(row pgx.Row) (domain.Subject, error) {
	var (
		s                       domain.Subject
		shortCode, email, phone *string
	)
	if err := row.Scan(&s.ID, &shortCode, &email, &phone, &s.OwnerAccountID, &s.CreatedAt); err != nil {
		return domain.Subject{}, err
	}
	s.ShortCode = derefString(shortCode)
	s.Email = derefString(email)
	s.Phone = derefString(phone)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func (r *subjectsRepo) GetSubjectByID(ctx context.Context, id string) (domain.Subject, error) {
	s, err := scanSubject(r.db.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id))
	if err != nil {
		return domain.Subject{}, mapNotFound(err)
	}
	return s, nil
}

func (r *subjectsRepo) FindSubject(ctx context.Context, kind domain.LookupKind, value string) (domain.Subject, error) {
	var column string
	switch kind {
	case domain.LookupShortCode:
		column = "short_code"
	case domain.LookupEmail:
		column = "email"
	case domain.LookupPhone:
		column = "phone"
	default:
		return domain.Subject{}, fmt.Errorf("postgres: unsupported lookup kind %q", kind)
	}

	s, err := scanSubject(r.db.QueryRow(ctx,
		`SELECT `+subjectColumns+` FROM subjects WHERE `+column+` = $1 ORDER BY created_at, id LIMIT 1`,
		value,
	))
	if err != nil {
		return domain.Subject{}, mapNotFound(err)
	}
	return s, nil
}

func (r *subjectsRepo) CreateSubject(ctx context.Context, s domain.Subject) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO subjects (`+subjectColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, nullString(s.ShortCode), nullString(s.Email), nullString(s.Phone), s.OwnerAccountID, s.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}
