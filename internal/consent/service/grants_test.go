package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/pkg/idx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func (f *fixture) doctor(t *testing.T) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, f.store.Roles().AssignRole(context.Background(), id, domain.RoleDoctor))
	return id
}

func (f *fixture) grant(t *testing.T, granteeID, subjectID string, ttl time.Duration) domain.AccessGrant {
	t.Helper()
	now := f.clock.Now()
	g := domain.AccessGrant{
		ID:        idx.NewAt(now).String(),
		GranteeID: granteeID,
		SubjectID: subjectID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	require.NoError(t, f.store.Grants().CreateGrant(context.Background(), g))
	return g
}

// Grant of 3h observed at +0, +1h30 and +3h01.
func TestScenarioGrantLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.subject(t, nil)
	doc := f.doctor(t)
	g := f.grant(t, doc, s.ID, 3*time.Hour)

	views, err := f.grants.ListValidGrantsFor(ctx, doc)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, 3*time.Hour, views[0].TimeRemaining)
	require.False(t, views[0].ExpiringSoon)

	f.clock.Advance(90 * time.Minute)
	views, err = f.grants.ListValidGrantsFor(ctx, doc)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, 90*time.Minute, views[0].TimeRemaining)
	require.True(t, views[0].ExpiringSoon)

	f.clock.Advance(91 * time.Minute)
	require.False(t, f.grants.IsValid(g))
	_, ok := f.grants.TimeRemaining(g)
	require.False(t, ok)
	require.False(t, f.grants.IsExpiringSoon(g))

	views, err = f.grants.ListValidGrantsFor(ctx, doc)
	require.NoError(t, err)
	require.Empty(t, views)

	can, err := f.grants.CanViewRecords(ctx, doc, s.ID)
	require.NoError(t, err)
	require.False(t, can)
}

func TestListValidGrantsFor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ordered by expiry and excludes revoked", func(t *testing.T) {
		f := newFixture(t)
		doc := f.doctor(t)
		s1 := f.subject(t, nil)
		s2 := f.subject(t, nil)
		s3 := f.subject(t, nil)

		late := f.grant(t, doc, s1.ID, 8*time.Hour)
		soon := f.grant(t, doc, s2.ID, time.Hour)
		revoked := f.grant(t, doc, s3.ID, 4*time.Hour)
		_, err := f.store.Grants().RevokeGrant(ctx, revoked.ID, f.clock.Now())
		require.NoError(t, err)
		f.grant(t, f.doctor(t), s1.ID, time.Hour) // someone else's

		views, err := f.grants.ListValidGrantsFor(ctx, doc)
		require.NoError(t, err)
		require.Len(t, views, 2)
		require.Equal(t, soon.ID, views[0].Grant.ID)
		require.Equal(t, late.ID, views[1].Grant.ID)
		for _, v := range views {
			require.Positive(t, v.TimeRemaining)
		}
	})

	t.Run("no grants is empty not nil error", func(t *testing.T) {
		f := newFixture(t)
		views, err := f.grants.ListValidGrantsFor(ctx, f.doctor(t))
		require.NoError(t, err)
		require.Empty(t, views)
	})

	t.Run("store failure is Unavailable", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Close())
		_, err := f.grants.ListValidGrantsFor(ctx, "x")
		require.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestCanViewRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := f.doctor(t)
	s := f.subject(t, nil)
	other := f.subject(t, nil)

	can, err := f.grants.CanViewRecords(ctx, doc, s.ID)
	require.NoError(t, err)
	require.False(t, can)

	g := f.grant(t, doc, s.ID, time.Hour)
	can, err = f.grants.CanViewRecords(ctx, doc, s.ID)
	require.NoError(t, err)
	require.True(t, can)

	can, err = f.grants.CanViewRecords(ctx, doc, other.ID)
	require.NoError(t, err)
	require.False(t, can)

	// Revocation takes effect even though the grant has not expired.
	_, err = f.store.Grants().RevokeGrant(ctx, g.ID, f.clock.Now())
	require.NoError(t, err)
	can, err = f.grants.CanViewRecords(ctx, doc, s.ID)
	require.NoError(t, err)
	require.False(t, can)
}

func TestIssueGrant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	owner := func(f *fixture, t *testing.T) (domain.Principal, domain.Subject) {
		t.Helper()
		p := domain.Principal{UserID: uuid.NewString(), Roles: []domain.Role{domain.RolePatient}}
		s := f.subject(t, func(s *domain.Subject) { s.OwnerAccountID = p.UserID })
		return p, s
	}

	t.Run("owner grants a doctor access", func(t *testing.T) {
		f := newFixture(t)
		p, s := owner(f, t)
		doc := f.doctor(t)

		g, err := f.grants.IssueGrant(ctx, p, s.ID, doc, 3*time.Hour)
		require.NoError(t, err)
		require.Equal(t, doc, g.GranteeID)
		require.True(t, g.ExpiresAt.Equal(f.clock.Now().Add(3*time.Hour)))

		got, err := f.store.Grants().GetGrantByID(ctx, g.ID)
		require.NoError(t, err)
		require.Equal(t, g.ID, got.ID)
		require.False(t, got.IsRevoked)
	})

	t.Run("super admin may grant on any subject", func(t *testing.T) {
		f := newFixture(t)
		s := f.subject(t, nil)
		admin := domain.Principal{UserID: "admin", Roles: []domain.Role{domain.RoleSuperAdmin}}

		_, err := f.grants.IssueGrant(ctx, admin, s.ID, f.doctor(t), time.Hour)
		require.NoError(t, err)
	})

	t.Run("other patients and doctors are forbidden", func(t *testing.T) {
		f := newFixture(t)
		_, s := owner(f, t)
		doc := f.doctor(t)

		stranger := domain.Principal{UserID: "someone-else", Roles: []domain.Role{domain.RolePatient}}
		_, err := f.grants.IssueGrant(ctx, stranger, s.ID, doc, time.Hour)
		require.ErrorIs(t, err, ErrForbidden)

		self := domain.Principal{UserID: doc, Roles: []domain.Role{domain.RoleDoctor}}
		_, err = f.grants.IssueGrant(ctx, self, s.ID, doc, time.Hour)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("grantee must be a doctor", func(t *testing.T) {
		f := newFixture(t)
		p, s := owner(f, t)

		_, err := f.grants.IssueGrant(ctx, p, s.ID, "not-a-doctor", time.Hour)
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("ttl bounds", func(t *testing.T) {
		f := newFixture(t)
		p, s := owner(f, t)
		doc := f.doctor(t)

		for _, ttl := range []time.Duration{0, -time.Hour, DefaultMaxGrantTTL + time.Second} {
			_, err := f.grants.IssueGrant(ctx, p, s.ID, doc, ttl)
			require.ErrorIs(t, err, ErrInvalidRequest, ttl)
		}
		_, err := f.grants.IssueGrant(ctx, p, s.ID, doc, DefaultMaxGrantTTL)
		require.NoError(t, err)
	})

	t.Run("unknown subject", func(t *testing.T) {
		f := newFixture(t)
		admin := domain.Principal{UserID: "admin", Roles: []domain.Role{domain.RoleSuperAdmin}}
		_, err := f.grants.IssueGrant(ctx, admin, "missing", f.doctor(t), time.Hour)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRevokeGrant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("owner revokes and repeat is a no-op", func(t *testing.T) {
		f := newFixture(t)
		p := domain.Principal{UserID: "owner-1", Roles: []domain.Role{domain.RolePatient}}
		s := f.subject(t, func(s *domain.Subject) { s.OwnerAccountID = p.UserID })
		doc := f.doctor(t)
		g := f.grant(t, doc, s.ID, time.Hour)

		require.NoError(t, f.grants.RevokeGrant(ctx, p, g.ID))
		require.NoError(t, f.grants.RevokeGrant(ctx, p, g.ID))

		got, err := f.store.Grants().GetGrantByID(ctx, g.ID)
		require.NoError(t, err)
		require.True(t, got.IsRevoked)
		require.NotNil(t, got.RevokedAt)
		require.False(t, f.grants.IsValid(got))
	})

	t.Run("grantee cannot revoke", func(t *testing.T) {
		f := newFixture(t)
		s := f.subject(t, nil)
		doc := f.doctor(t)
		g := f.grant(t, doc, s.ID, time.Hour)

		err := f.grants.RevokeGrant(ctx, domain.Principal{UserID: doc, Roles: []domain.Role{domain.RoleDoctor}}, g.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown grant", func(t *testing.T) {
		f := newFixture(t)
		admin := domain.Principal{UserID: "admin", Roles: []domain.Role{domain.RoleSuperAdmin}}
		require.ErrorIs(t, f.grants.RevokeGrant(ctx, admin, "missing"), ErrNotFound)
	})
}
