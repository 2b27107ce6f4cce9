package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/jackc/pgx/v5"
)

type linksRepo struct {
	db dbtx
}

const linkColumns = `id, requester_id, subject_id, consented_at, consent, revoked_at`

func scanLink(row pgx.Row) (domain.ConsentLink, error) {
	var l domain.ConsentLink
	if err := row.Scan(&l.ID, &l.RequesterID, &l.SubjectID, &l.ConsentedAt, &l.Consent, &l.RevokedAt); err != nil {
		return domain.ConsentLink{}, err
	}
	l.ConsentedAt = l.ConsentedAt.UTC()
	if l.RevokedAt != nil {
		v := l.RevokedAt.UTC()
		l.RevokedAt = &v
	}
	return l, nil
}

func (r *linksRepo) GetLink(ctx context.Context, requesterID, subjectID string) (domain.ConsentLink, error) {
	l, err := scanLink(r.db.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM consent_links WHERE requester_id = $1 AND subject_id = $2`,
		requesterID, subjectID,
	))
	if err != nil {
		return domain.ConsentLink{}, mapNotFound(err)
	}
	return l, nil
}

func (r *linksRepo) UpsertLink(ctx context.Context, l domain.ConsentLink) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO consent_links (id, requester_id, subject_id, consented_at, consent)
		 VALUES ($1, $2, $3, $4, TRUE)
		 ON CONFLICT (requester_id, subject_id) DO UPDATE
		   SET consent = TRUE, consented_at = EXCLUDED.consented_at
		 WHERE NOT consent_links.consent`,
		l.ID, l.RequesterID, l.SubjectID, l.ConsentedAt.UTC(),
	)
	return err
}

func (r *linksRepo) RevokeLink(ctx context.Context, requesterID, subjectID string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE consent_links SET consent = FALSE, revoked_at = $1
		 WHERE requester_id = $2 AND subject_id = $3 AND consent`,
		at.UTC(), requesterID, subjectID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *linksRepo) ListActiveLinks(ctx context.Context, requesterID string) ([]domain.ConsentLink, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+linkColumns+` FROM consent_links
		 WHERE requester_id = $1 AND consent
		 ORDER BY consented_at DESC, id DESC`,
		requesterID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ConsentLink, error) {
		return scanLink(row)
	})
}
