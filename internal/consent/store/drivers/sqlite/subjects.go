package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
)

type subjectsRepo struct {
	db dbtx
}

const subjectColumns = `id, short_code, email, phone, owner_account_id, created_at`

func scanSubject(row rowScanner) (domain.Subject, error) {
	var (
		s                       domain.Subject
		shortCode, email, phone sql.NullString
		createdAt               int64
	)
	if err := row.Scan(&s.ID, &shortCode, &email, &phone, &s.OwnerAccountID, &createdAt); err != nil {
		return domain.Subject{}, err
	}
	s.ShortCode = mapNullString(shortCode)
	s.Email = mapNullString(email)
	s.Phone = mapNullString(phone)
	s.CreatedAt = fromUnixNano(createdAt)
	return s, nil
}

func (r *subjectsRepo) GetSubjectByID(ctx context.Context, id string) (domain.Subject, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = ?`, id)
	s, err := scanSubject(row)
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
		return domain.Subject{}, fmt.Errorf("sqlite: unsupported lookup kind %q", kind)
	}

	// Oldest row wins when a non-unique handle (email, phone) is shared.
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subjectColumns+` FROM subjects WHERE `+column+` = ? ORDER BY created_at, id LIMIT 1`,
		value,
	)
	s, err := scanSubject(row)
	if err != nil {
		return domain.Subject{}, mapNotFound(err)
	}
	return s, nil
}

func (r *subjectsRepo) CreateSubject(ctx context.Context, s domain.Subject) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subjects (`+subjectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, mapStringNull(s.ShortCode), mapStringNull(s.Email), mapStringNull(s.Phone),
		s.OwnerAccountID, unixNano(s.CreatedAt),
	)
	return mapConstraint(err)
}
