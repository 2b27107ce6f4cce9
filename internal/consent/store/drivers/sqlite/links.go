package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
)

type linksRepo struct {
	db dbtx
}

const linkColumns = `id, requester_id, subject_id, consented_at, consent, revoked_at`

func scanLink(row rowScanner) (domain.ConsentLink, error) {
	var (
		l           domain.ConsentLink
		consentedAt int64
		consent     int
		revokedAt   sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.RequesterID, &l.SubjectID, &consentedAt, &consent, &revokedAt); err != nil {
		return domain.ConsentLink{}, err
	}
	l.ConsentedAt = fromUnixNano(consentedAt)
	l.Consent = consent != 0
	l.RevokedAt = mapNullTimePtr(revokedAt)
	return l, nil
}

func (r *linksRepo) GetLink(ctx context.Context, requesterID, subjectID string) (domain.ConsentLink, error) {
	l, err := scanLink(r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM consent_links WHERE requester_id = ? AND subject_id = ?`,
		requesterID, subjectID,
	))
	if err != nil {
		return domain.ConsentLink{}, mapNotFound(err)
	}
	return l, nil
}

// UpsertLink keeps the original row id. A revoked row is reactivated and
// keeps its revoked_at so later reads can tell when consent last lapsed.
func (r *linksRepo) UpsertLink(ctx context.Context, l domain.ConsentLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO consent_links (id, requester_id, subject_id, consented_at, consent)
		 VALUES (?, ?, ?, ?, 1)
		 ON CONFLICT (requester_id, subject_id) DO UPDATE
		   SET consent = 1, consented_at = excluded.consented_at
		 WHERE consent_links.consent = 0`,
		l.ID, l.RequesterID, l.SubjectID, unixNano(l.ConsentedAt),
	)
	return err
}

func (r *linksRepo) RevokeLink(ctx context.Context, requesterID, subjectID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE consent_links SET consent = 0, revoked_at = ?
		 WHERE requester_id = ? AND subject_id = ? AND consent = 1`,
		unixNano(at), requesterID, subjectID,
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

func (r *linksRepo) ListActiveLinks(ctx context.Context, requesterID string) ([]domain.ConsentLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM consent_links
		 WHERE requester_id = ? AND consent = 1
		 ORDER BY consented_at DESC, id DESC`,
		requesterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ConsentLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
