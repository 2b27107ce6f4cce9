// Package storetest holds a conformance suite every store driver runs.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/aussiebroadwan/carelink/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated store for one subtest.
type Factory func(t *testing.T) store.Store

// base is microsecond aligned so drivers with coarser timestamps round-trip.
var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// Run exercises every repository through the given factory.
func Run(t *testing.T, newStore Factory) {
	t.Run("Subjects", func(t *testing.T) { testSubjects(t, newStore(t)) })
	t.Run("Roles", func(t *testing.T) { testRoles(t, newStore(t)) })
	t.Run("Challenges", func(t *testing.T) { testChallenges(t, newStore(t)) })
	t.Run("ChallengeLatchRace", func(t *testing.T) { testChallengeLatchRace(t, newStore(t)) })
	t.Run("Links", func(t *testing.T) { testLinks(t, newStore(t)) })
	t.Run("Grants", func(t *testing.T) { testGrants(t, newStore(t)) })
	t.Run("WithTx", func(t *testing.T) { testWithTx(t, newStore(t)) })
}

// Seed inserts a requester and a subject and returns them.
func Seed(t *testing.T, s store.Store) (domain.Requester, domain.Subject) {
	t.Helper()
	ctx := context.Background()

	req := domain.Requester{ID: idx.New().String(), Role: domain.RolePartner, AccountID: "acct-partner", CreatedAt: base}
	require.NoError(t, s.Requesters().CreateRequester(ctx, req))

	sub := domain.Subject{
		ID:             idx.New().String(),
		ShortCode:      "PT-" + idx.New().String()[20:],
		Email:          "jane@example.com",
		Phone:          "+61400000001",
		OwnerAccountID: "acct-patient",
		CreatedAt:      base,
	}
	require.NoError(t, s.Subjects().CreateSubject(ctx, sub))
	return req, sub
}

func testSubjects(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, sub := Seed(t, s)

	got, err := s.Subjects().GetSubjectByID(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, sub, got)

	for _, tc := range []struct {
		kind  domain.LookupKind
		value string
	}{
		{domain.LookupShortCode, sub.ShortCode},
		{domain.LookupEmail, sub.Email},
		{domain.LookupPhone, sub.Phone},
	} {
		got, err := s.Subjects().FindSubject(ctx, tc.kind, tc.value)
		require.NoError(t, err, tc.kind)
		require.Equal(t, sub.ID, got.ID)
	}

	_, err = s.Subjects().FindSubject(ctx, domain.LookupEmail, "JANE@example.com")
	require.ErrorIs(t, err, store.ErrNotFound, "matching is exact")

	_, err = s.Subjects().GetSubjectByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	unregistered := domain.Subject{ID: idx.New().String(), OwnerAccountID: "acct-x", CreatedAt: base}
	require.NoError(t, s.Subjects().CreateSubject(ctx, unregistered))
	got, err = s.Subjects().GetSubjectByID(ctx, unregistered.ID)
	require.NoError(t, err)
	require.False(t, got.Linkable())

	dup := domain.Subject{ID: idx.New().String(), ShortCode: sub.ShortCode, OwnerAccountID: "acct-y", CreatedAt: base}
	require.ErrorIs(t, s.Subjects().CreateSubject(ctx, dup), store.ErrAlreadyExists)
}

func testRoles(t *testing.T, s store.Store) {
	ctx := context.Background()

	roles, err := s.Roles().ListRolesForUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, roles)

	require.NoError(t, s.Roles().AssignRole(ctx, "u1", domain.RolePartner))
	require.NoError(t, s.Roles().AssignRole(ctx, "u1", domain.RolePartner))
	require.NoError(t, s.Roles().AssignRole(ctx, "u1", domain.RoleDoctor))

	roles, err = s.Roles().ListRolesForUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []domain.Role{domain.RoleDoctor, domain.RolePartner}, roles)
}

func newChallenge(req domain.Requester, sub domain.Subject, hash string, created time.Time) domain.Challenge {
	return domain.Challenge{
		ID:          idx.NewAt(created).String(),
		RequesterID: req.ID,
		SubjectID:   sub.ID,
		CodeHash:    hash,
		CreatedAt:   created,
		ExpiresAt:   created.Add(10 * time.Minute),
	}
}

func testChallenges(t *testing.T, s store.Store) {
	ctx := context.Background()
	req, sub := Seed(t, s)
	repo := s.Challenges()

	c1 := newChallenge(req, sub, "h1", base)
	c2 := newChallenge(req, sub, "h2", base.Add(20*time.Minute))
	c3 := newChallenge(req, sub, "h1", base.Add(30*time.Minute))
	for _, c := range []domain.Challenge{c1, c2, c3} {
		require.NoError(t, repo.CreateChallenge(ctx, c))
	}

	n, err := repo.CountChallengesSince(ctx, req.ID, sub.ID, base.Add(10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	oldest, err := repo.OldestChallengeSince(ctx, req.ID, sub.ID, base.Add(10*time.Minute))
	require.NoError(t, err)
	require.True(t, oldest.Equal(c2.CreatedAt))

	_, err = repo.OldestChallengeSince(ctx, req.ID, sub.ID, base.Add(time.Hour))
	require.ErrorIs(t, err, store.ErrNotFound)

	now := base.Add(31 * time.Minute)
	got, err := repo.FindUsableChallenge(ctx, req.ID, sub.ID, "h1", now)
	require.NoError(t, err)
	require.Equal(t, c3.ID, got.ID, "newest matching challenge wins")

	_, err = repo.FindUsableChallenge(ctx, req.ID, sub.ID, "h2", base.Add(31*time.Minute))
	require.ErrorIs(t, err, store.ErrNotFound, "c2 expired at +30m")

	_, err = repo.FindUsableChallenge(ctx, req.ID, sub.ID, "h1", c3.ExpiresAt)
	require.ErrorIs(t, err, store.ErrNotFound, "expiry is exclusive")

	ok, err := repo.MarkChallengeVerified(ctx, c3.ID, now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.MarkChallengeVerified(ctx, c3.ID, now.Add(time.Second))
	require.NoError(t, err)
	require.False(t, ok, "latch only flips once")

	stored, err := repo.GetChallengeByID(ctx, c3.ID)
	require.NoError(t, err)
	require.True(t, stored.Verified)
	require.NotNil(t, stored.VerifiedAt)
	require.True(t, stored.VerifiedAt.Equal(now))

	_, err = repo.FindUsableChallenge(ctx, req.ID, sub.ID, "h1", now)
	require.ErrorIs(t, err, store.ErrNotFound)

	v, err := repo.FindVerifiedChallenge(ctx, req.ID, sub.ID, "h1", time.Time{}, now)
	require.NoError(t, err)
	require.Equal(t, c3.ID, v.ID)

	_, err = repo.FindVerifiedChallenge(ctx, req.ID, sub.ID, "h1", now, now)
	require.ErrorIs(t, err, store.ErrNotFound, "verified_at must be after the bound")

	_, err = repo.FindVerifiedChallenge(ctx, req.ID, sub.ID, "h1", time.Time{}, c3.ExpiresAt)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Challenges().LockPair(ctx, req.ID, sub.ID)
	}))
}

func testChallengeLatchRace(t *testing.T, s store.Store) {
	ctx := context.Background()
	req, sub := Seed(t, s)

	c := newChallenge(req, sub, "race", base)
	require.NoError(t, s.Challenges().CreateChallenge(ctx, c))

	const workers = 16
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Challenges().MarkChallengeVerified(ctx, c.ID, base.Add(time.Minute))
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}

func testLinks(t *testing.T, s store.Store) {
	ctx := context.Background()
	req, sub := Seed(t, s)
	repo := s.Links()

	_, err := repo.GetLink(ctx, req.ID, sub.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	first := domain.ConsentLink{ID: idx.New().String(), RequesterID: req.ID, SubjectID: sub.ID, ConsentedAt: base, Consent: true}
	require.NoError(t, repo.UpsertLink(ctx, first))

	again := first
	again.ID = idx.New().String()
	again.ConsentedAt = base.Add(time.Minute)
	require.NoError(t, repo.UpsertLink(ctx, again))

	got, err := repo.GetLink(ctx, req.ID, sub.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID, "upsert keeps the original row")
	require.True(t, got.ConsentedAt.Equal(base), "active link is left untouched")
	require.True(t, got.Active())

	active, err := repo.ListActiveLinks(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	revokedAt := base.Add(time.Hour)
	ok, err := repo.RevokeLink(ctx, req.ID, sub.ID, revokedAt)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.RevokeLink(ctx, req.ID, sub.ID, revokedAt.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, ok)

	got, err = repo.GetLink(ctx, req.ID, sub.ID)
	require.NoError(t, err)
	require.False(t, got.Active())
	require.NotNil(t, got.RevokedAt)
	require.True(t, got.RevokedAt.Equal(revokedAt))

	active, err = repo.ListActiveLinks(ctx, req.ID)
	require.NoError(t, err)
	require.Empty(t, active)

	relink := first
	relink.ID = idx.New().String()
	relink.ConsentedAt = base.Add(2 * time.Hour)
	require.NoError(t, repo.UpsertLink(ctx, relink))

	got, err = repo.GetLink(ctx, req.ID, sub.ID)
	require.NoError(t, err)
	require.True(t, got.Active())
	require.Equal(t, first.ID, got.ID)
	require.True(t, got.ConsentedAt.Equal(relink.ConsentedAt))
}

func testGrants(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, sub := Seed(t, s)
	repo := s.Grants()
	now := base

	mk := func(ttl time.Duration) domain.AccessGrant {
		return domain.AccessGrant{
			ID:        idx.New().String(),
			GranteeID: "doctor-1",
			SubjectID: sub.ID,
			IssuedAt:  now.Add(-time.Hour),
			ExpiresAt: now.Add(ttl),
		}
	}

	g10m, g3h, g1h := mk(10*time.Minute), mk(3*time.Hour), mk(time.Hour)
	expired := mk(-time.Second)
	revoked := mk(2 * time.Hour)
	for _, g := range []domain.AccessGrant{g10m, g3h, g1h, expired, revoked} {
		require.NoError(t, repo.CreateGrant(ctx, g))
	}

	ok, err := repo.RevokeGrant(ctx, revoked.ID, now)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.RevokeGrant(ctx, revoked.ID, now.Add(time.Second))
	require.NoError(t, err)
	require.False(t, ok)

	got, err := repo.GetGrantByID(ctx, revoked.ID)
	require.NoError(t, err)
	require.True(t, got.IsRevoked)
	require.NotNil(t, got.RevokedAt)

	list, err := repo.ListValidGrants(ctx, "doctor-1", now)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{g10m.ID, g1h.ID, g3h.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	has, err := repo.HasValidGrant(ctx, "doctor-1", sub.ID, now)
	require.NoError(t, err)
	require.True(t, has)

	has, err = repo.HasValidGrant(ctx, "doctor-1", sub.ID, now.Add(4*time.Hour))
	require.NoError(t, err)
	require.False(t, has)

	_, err = repo.GetGrantByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testWithTx(t *testing.T, s store.Store) {
	ctx := context.Background()
	req, sub := Seed(t, s)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Challenges().CreateChallenge(ctx, newChallenge(req, sub, "rolled-back", base)); err != nil {
			return err
		}
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	n, err := s.Challenges().CountChallengesSince(ctx, req.ID, sub.ID, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Zero(t, n, "failed tx must roll back")

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Tx(ctx)
		require.ErrorIs(t, err, store.ErrNestedTx)
		return tx.Challenges().CreateChallenge(ctx, newChallenge(req, sub, "committed", base))
	}))

	n, err = s.Challenges().CountChallengesSince(ctx, req.ID, sub.ID, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
