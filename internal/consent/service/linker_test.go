package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/stretchr/testify/require"
)

func TestRequestLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unregistered subject is NotLinkable and sends nothing", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-partner")
		s := f.subject(t, func(s *domain.Subject) { s.ShortCode = "" })

		_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{Email: s.Email})
		require.ErrorIs(t, err, ErrNotLinkable)
		require.Zero(t, f.countChallenges(t, r.ID, s.ID))
		require.Zero(t, f.sender.count())
	})

	t.Run("owned subject links without a challenge", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-family")
		s := f.subject(t, func(s *domain.Subject) {
			s.OwnerAccountID = "acct-family"
			s.ShortCode = ""
		})

		res, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{Phone: s.Phone})
		require.NoError(t, err)
		require.Equal(t, domain.LinkStatusLinked, res.Status)
		require.Nil(t, res.Challenge)
		require.Zero(t, f.sender.count())
		require.NoError(t, f.links.Authorize(ctx, r.ID, s.ID))
	})

	t.Run("lookup is exact", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-partner")
		s := f.subject(t, nil)

		_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode[:4]})
		require.ErrorIs(t, err, ErrNotFound)

		_, err = f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{Email: "jane@example.org"})
		require.ErrorIs(t, err, ErrNotFound)

		res, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: "  " + s.ShortCode + " "})
		require.NoError(t, err)
		require.Equal(t, s.ID, res.SubjectID)
	})

	t.Run("empty lookup is InvalidRequest", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-partner")

		_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("unknown requester is NotFound", func(t *testing.T) {
		f := newFixture(t)
		s := f.subject(t, nil)

		_, err := f.links.RequestLink(ctx, "ghost", domain.SubjectLookup{ShortCode: s.ShortCode})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("already linked issues no new challenge", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-partner")
		s := f.subject(t, nil)

		_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
		require.NoError(t, err)
		_, err = f.links.ConfirmLink(ctx, r.ID, s.ID, f.sender.lastCode(t))
		require.NoError(t, err)

		_, err = f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
		require.ErrorIs(t, err, ErrAlreadyLinked)
		require.Equal(t, 1, f.countChallenges(t, r.ID, s.ID))
	})

	t.Run("rate limit surfaces through the linker", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-partner")
		s := f.subject(t, nil)

		for range 3 {
			_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
			require.NoError(t, err)
		}
		_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
		var rl *RateLimitError
		require.ErrorAs(t, err, &rl)
		require.Equal(t, 60*time.Minute, rl.RetryAfter)
	})
}

// Subject with no email: nothing is created and nothing is sent.
func TestScenarioNoDeliveryChannel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.requester(t, "acct-partner")
	s := f.subject(t, func(s *domain.Subject) { s.Email = "" })

	_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
	require.ErrorIs(t, err, ErrNoDeliveryChannel)
	require.Zero(t, f.countChallenges(t, r.ID, s.ID))
	require.Zero(t, f.sender.count())

	_, err = f.store.Links().GetLink(ctx, r.ID, s.ID)
	require.Error(t, err)
}

// Happy path: challenge, wrong code, right code, replay.
func TestScenarioRequestAndConfirm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.requester(t, "acct-partner")
	s := f.subject(t, nil)

	res, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
	require.NoError(t, err)
	require.Equal(t, domain.LinkStatusChallengeIssued, res.Status)
	require.NotNil(t, res.Challenge)
	require.Equal(t, "j***@example.com", res.Challenge.Destination)
	code := f.sender.lastCode(t)

	_, err = f.links.ConfirmLink(ctx, r.ID, s.ID, wrongCode(code))
	require.ErrorIs(t, err, ErrInvalidCode)
	require.ErrorIs(t, f.links.Authorize(ctx, r.ID, s.ID), ErrNotFound)

	f.clock.Advance(time.Minute)
	status, err := f.links.ConfirmLink(ctx, r.ID, s.ID, code)
	require.NoError(t, err)
	require.Equal(t, domain.LinkStatusLinked, status)
	require.NoError(t, f.links.Authorize(ctx, r.ID, s.ID))

	first, err := f.store.Links().GetLink(ctx, r.ID, s.ID)
	require.NoError(t, err)

	// Replay is idempotent and does not create a second link.
	f.clock.Advance(time.Minute)
	status, err = f.links.ConfirmLink(ctx, r.ID, s.ID, code)
	require.NoError(t, err)
	require.Equal(t, domain.LinkStatusLinked, status)

	links, err := f.links.ListLinks(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, first.ID, links[0].ID)
	require.True(t, first.ConsentedAt.Equal(links[0].ConsentedAt))

	// Past the TTL the replay is no longer honoured.
	f.clock.Advance(10 * time.Minute)
	_, err = f.links.ConfirmLink(ctx, r.ID, s.ID, code)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestConfirmLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("verified challenge without a link still confirms", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-partner")
		s := f.subject(t, nil)
		_, err := f.challenges.IssueChallenge(ctx, r.ID, s.ID)
		require.NoError(t, err)
		code := f.sender.lastCode(t)

		// The verification lands but the link write never happens.
		out, err := f.challenges.VerifyChallenge(ctx, r.ID, s.ID, code)
		require.NoError(t, err)
		require.Equal(t, VerifyVerified, out)
		require.ErrorIs(t, f.links.Authorize(ctx, r.ID, s.ID), ErrNotFound)

		status, err := f.links.ConfirmLink(ctx, r.ID, s.ID, code)
		require.NoError(t, err)
		require.Equal(t, domain.LinkStatusLinked, status)
		require.NoError(t, f.links.Authorize(ctx, r.ID, s.ID))
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-partner")
		s := f.subject(t, nil)
		_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
		require.NoError(t, err)
		code := f.sender.lastCode(t)

		f.clock.Advance(10*time.Minute + time.Nanosecond)
		_, err = f.links.ConfirmLink(ctx, r.ID, s.ID, code)
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("an older outstanding code still confirms", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-partner")
		s := f.subject(t, nil)

		_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
		require.NoError(t, err)
		older := f.sender.lastCode(t)
		f.clock.Advance(time.Minute)
		_, err = f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
		require.NoError(t, err)

		status, err := f.links.ConfirmLink(ctx, r.ID, s.ID, older)
		require.NoError(t, err)
		require.Equal(t, domain.LinkStatusLinked, status)
	})
}

func TestUnlink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	link := func(t *testing.T, f *fixture) (domain.Requester, domain.Subject, string) {
		t.Helper()
		r := f.requester(t, "acct-partner")
		s := f.subject(t, nil)
		_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
		require.NoError(t, err)
		code := f.sender.lastCode(t)
		_, err = f.links.ConfirmLink(ctx, r.ID, s.ID, code)
		require.NoError(t, err)
		return r, s, code
	}

	t.Run("withdraws consent and is idempotent", func(t *testing.T) {
		f := newFixture(t)
		r, s, _ := link(t, f)

		f.clock.Advance(time.Minute)
		require.NoError(t, f.links.Unlink(ctx, r.ID, s.ID))
		require.NoError(t, f.links.Unlink(ctx, r.ID, s.ID))
		require.ErrorIs(t, f.links.Authorize(ctx, r.ID, s.ID), ErrNotFound)

		got, err := f.store.Links().GetLink(ctx, r.ID, s.ID)
		require.NoError(t, err)
		require.False(t, got.Consent)
		require.NotNil(t, got.RevokedAt)

		links, err := f.links.ListLinks(ctx, r.ID)
		require.NoError(t, err)
		require.Empty(t, links)
	})

	t.Run("unlinking a never-linked pair is fine", func(t *testing.T) {
		f := newFixture(t)
		r := f.requester(t, "acct-partner")
		s := f.subject(t, nil)
		require.NoError(t, f.links.Unlink(ctx, r.ID, s.ID))
	})

	t.Run("old code cannot resurrect the link", func(t *testing.T) {
		f := newFixture(t)
		r, s, code := link(t, f)

		f.clock.Advance(time.Minute)
		require.NoError(t, f.links.Unlink(ctx, r.ID, s.ID))

		f.clock.Advance(time.Minute)
		_, err := f.links.ConfirmLink(ctx, r.ID, s.ID, code)
		require.ErrorIs(t, err, ErrInvalidCode)
		require.ErrorIs(t, f.links.Authorize(ctx, r.ID, s.ID), ErrNotFound)
	})

	t.Run("relinking needs a fresh challenge and reuses the row", func(t *testing.T) {
		f := newFixture(t)
		r, s, _ := link(t, f)
		before, err := f.store.Links().GetLink(ctx, r.ID, s.ID)
		require.NoError(t, err)

		f.clock.Advance(time.Minute)
		require.NoError(t, f.links.Unlink(ctx, r.ID, s.ID))

		f.clock.Advance(time.Minute)
		res, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
		require.NoError(t, err)
		require.Equal(t, domain.LinkStatusChallengeIssued, res.Status)

		_, err = f.links.ConfirmLink(ctx, r.ID, s.ID, f.sender.lastCode(t))
		require.NoError(t, err)

		after, err := f.store.Links().GetLink(ctx, r.ID, s.ID)
		require.NoError(t, err)
		require.Equal(t, before.ID, after.ID)
		require.True(t, after.Active())
		require.True(t, after.ConsentedAt.After(before.ConsentedAt))
	})
}

func TestLinkerUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.requester(t, "acct-partner")
	s := f.subject(t, nil)
	require.NoError(t, f.store.Close())

	_, err := f.links.RequestLink(ctx, r.ID, domain.SubjectLookup{ShortCode: s.ShortCode})
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, f.links.Authorize(ctx, r.ID, s.ID), ErrUnavailable)
	require.ErrorIs(t, f.links.Unlink(ctx, r.ID, s.ID), ErrUnavailable)
}
