package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/aussiebroadwan/carelink/pkg/idx"
	"github.com/aussiebroadwan/carelink/pkg/slogx"
)

// DefaultMaxGrantTTL caps how long a single grant may run.
const DefaultMaxGrantTTL = 30 * 24 * time.Hour

// GrantService evaluates and manages time-boxed access grants. Validity is
// always recomputed from the clock; nothing is cached.
type GrantService struct {
	Store store.Store

	ExpiringSoon time.Duration
	MaxTTL       time.Duration

	Now func() time.Time
}

// GrantView is a grant annotated for the grantee.
type GrantView struct {
	Grant         domain.AccessGrant
	TimeRemaining time.Duration
	ExpiringSoon  bool
}

func (s *GrantService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *GrantService) expiringSoon() time.Duration {
	if s.ExpiringSoon > 0 {
		return s.ExpiringSoon
	}
	return domain.DefaultExpiringSoon
}

func (s *GrantService) maxTTL() time.Duration {
	if s.MaxTTL > 0 {
		return s.MaxTTL
	}
	return DefaultMaxGrantTTL
}

func (s *GrantService) IsValid(g domain.AccessGrant) bool {
	return g.IsValid(s.now())
}

// TimeRemaining returns ok=false once the grant has expired.
func (s *GrantService) TimeRemaining(g domain.AccessGrant) (time.Duration, bool) {
	return g.TimeRemaining(s.now())
}

func (s *GrantService) IsExpiringSoon(g domain.AccessGrant) bool {
	return g.IsExpiringSoon(s.now(), s.expiringSoon())
}

// ListValidGrantsFor returns the grantee's usable grants, soonest expiry first.
func (s *GrantService) ListValidGrantsFor(ctx context.Context, granteeID string) ([]GrantView, error) {
	now := s.now()

	grants, err := s.Store.Grants().ListValidGrants(ctx, granteeID, now)
	if err != nil {
		return nil, unavailable("list grants", err)
	}

	out := make([]GrantView, 0, len(grants))
	for _, g := range grants {
		remaining, ok := g.TimeRemaining(now)
		if !ok || !g.IsValid(now) {
			continue
		}
		out = append(out, GrantView{
			Grant:         g,
			TimeRemaining: remaining,
			ExpiringSoon:  g.IsExpiringSoon(now, s.expiringSoon()),
		})
	}
	slices.SortStableFunc(out, func(a, b GrantView) int {
		return cmp.Compare(a.Grant.ExpiresAt.UnixNano(), b.Grant.ExpiresAt.UnixNano())
	})
	return out, nil
}

// CanViewRecords reports whether the grantee holds any currently valid
// grant on the subject.
func (s *GrantService) CanViewRecords(ctx context.Context, granteeID, subjectID string) (bool, error) {
	ok, err := s.Store.Grants().HasValidGrant(ctx, granteeID, subjectID, s.now())
	if err != nil {
		return false, unavailable("check grant", err)
	}
	return ok, nil
}

// IssueGrant lets the subject's owner (or a super admin) give a doctor
// time-limited access.
func (s *GrantService) IssueGrant(ctx context.Context, actor domain.Principal, subjectID, granteeID string, ttl time.Duration) (domain.AccessGrant, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("actor_id", actor.UserID),
		slog.String("subject_id", subjectID),
		slog.String("grantee_id", granteeID),
	)

	if granteeID == "" || ttl <= 0 || ttl > s.maxTTL() {
		return domain.AccessGrant{}, ErrInvalidRequest
	}

	subject, err := s.Store.Subjects().GetSubjectByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AccessGrant{}, ErrNotFound
		}
		return domain.AccessGrant{}, unavailable("load subject", err)
	}
	if !canManage(actor, subject) {
		log.Warn("grant issuance refused")
		return domain.AccessGrant{}, ErrForbidden
	}

	roles, err := s.Store.Roles().ListRolesForUser(ctx, granteeID)
	if err != nil {
		return domain.AccessGrant{}, unavailable("load grantee roles", err)
	}
	if !slices.Contains(roles, domain.RoleDoctor) {
		return domain.AccessGrant{}, ErrInvalidRequest
	}

	now := s.now()
	g := domain.AccessGrant{
		ID:        idx.NewAt(now).String(),
		GranteeID: granteeID,
		SubjectID: subject.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.Store.Grants().CreateGrant(ctx, g); err != nil {
		return domain.AccessGrant{}, unavailable("create grant", err)
	}

	log.Info("access grant issued", slog.String("grant_id", g.ID), slog.Time("expires_at", g.ExpiresAt))
	return g, nil
}

// RevokeGrant flips the revocation latch. Revoking twice is a no-op.
func (s *GrantService) RevokeGrant(ctx context.Context, actor domain.Principal, grantID string) error {
	g, err := s.Store.Grants().GetGrantByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return unavailable("load grant", err)
	}

	subject, err := s.Store.Subjects().GetSubjectByID(ctx, g.SubjectID)
	if err != nil {
		return unavailable("load subject", err)
	}
	if !canManage(actor, subject) {
		return ErrForbidden
	}

	revoked, err := s.Store.Grants().RevokeGrant(ctx, grantID, s.now())
	if err != nil {
		return unavailable("revoke grant", err)
	}
	if revoked {
		slogx.FromContext(ctx).Info("access grant revoked",
			slog.String("grant_id", grantID),
			slog.String("actor_id", actor.UserID),
		)
	}
	return nil
}

// canManage: super admins, or a patient whose account owns the subject.
func canManage(actor domain.Principal, subject domain.Subject) bool {
	if actor.Has(domain.RoleSuperAdmin) {
		return true
	}
	return actor.Has(domain.RolePatient) && actor.UserID != "" && actor.UserID == subject.OwnerAccountID
}
