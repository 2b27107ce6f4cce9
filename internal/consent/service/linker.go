package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/aussiebroadwan/carelink/pkg/idx"
	"github.com/aussiebroadwan/carelink/pkg/slogx"
)

// LinkService runs the request/confirm linking workflow and is the only
// writer of consent links.
type LinkService struct {
	Store      store.Store
	Challenges *ChallengeService

	Now func() time.Time
}

func (s *LinkService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// RequestLink resolves the candidate and either links directly (the
// requester's own account owns the subject) or issues a challenge.
func (s *LinkService) RequestLink(ctx context.Context, requesterID string, candidate domain.SubjectLookup) (domain.LinkRequestResult, error) {
	log := slogx.FromContext(ctx).With(slog.String("requester_id", requesterID))

	kind, value := candidate.Normalize().Key()
	if kind == domain.LookupNone {
		return domain.LinkRequestResult{}, ErrInvalidRequest
	}

	requester, err := s.Store.Requesters().GetRequesterByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LinkRequestResult{}, ErrNotFound
		}
		return domain.LinkRequestResult{}, unavailable("load requester", err)
	}

	// 1. Exact match on a single handle.
	subject, err := s.Store.Subjects().FindSubject(ctx, kind, value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("link request: no subject matched", slog.String("lookup", string(kind)))
			return domain.LinkRequestResult{}, ErrNotFound
		}
		return domain.LinkRequestResult{}, unavailable("find subject", err)
	}
	log = log.With(slog.String("subject_id", subject.ID))

	// 2. Already linked is terminal.
	link, err := s.Store.Links().GetLink(ctx, requester.ID, subject.ID)
	switch {
	case err == nil && link.Active():
		return domain.LinkRequestResult{}, ErrAlreadyLinked
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return domain.LinkRequestResult{}, unavailable("load link", err)
	}

	// 3. Precedence: owned, then unregistered, then challenge.
	if requester.AccountID != "" && subject.OwnerAccountID == requester.AccountID {
		if err := s.upsertLink(ctx, requester.ID, subject.ID); err != nil {
			return domain.LinkRequestResult{}, err
		}
		log.Info("owned subject linked without challenge")
		return domain.LinkRequestResult{Status: domain.LinkStatusLinked, SubjectID: subject.ID}, nil
	}

	if !subject.Linkable() {
		log.Warn("link request refused: subject has no short code")
		return domain.LinkRequestResult{}, ErrNotLinkable
	}

	handle, err := s.Challenges.IssueChallenge(ctx, requester.ID, subject.ID)
	if err != nil {
		return domain.LinkRequestResult{}, err
	}
	return domain.LinkRequestResult{
		Status:    domain.LinkStatusChallengeIssued,
		SubjectID: subject.ID,
		Challenge: &handle,
	}, nil
}

// ConfirmLink verifies code and materialises the link. A retry after a
// verified challenge whose link write failed (or a plain repeat) still
// links, as long as that challenge is inside its TTL and was verified after
// the last unlink.
func (s *LinkService) ConfirmLink(ctx context.Context, requesterID, subjectID, code string) (domain.LinkStatus, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("requester_id", requesterID),
		slog.String("subject_id", subjectID),
	)

	outcome, err := s.Challenges.VerifyChallenge(ctx, requesterID, subjectID, code)
	if err != nil {
		return "", err
	}

	if outcome == VerifyInvalid {
		recovered, err := s.verifiedEarlier(ctx, requesterID, subjectID, code)
		if err != nil {
			return "", err
		}
		if !recovered {
			return "", ErrInvalidCode
		}
		log.Info("re-materialising link from an already verified challenge")
	}

	if err := s.upsertLink(ctx, requesterID, subjectID); err != nil {
		log.Error("challenge verified but link not stored", slog.Any("error", err))
		return "", err
	}

	log.Info("consent link established")
	return domain.LinkStatusLinked, nil
}

// verifiedEarlier looks for a still-unexpired challenge with this code that
// was verified after the most recent revocation of the pair's link.
func (s *LinkService) verifiedEarlier(ctx context.Context, requesterID, subjectID, code string) (bool, error) {
	if !isCode(code) {
		return false, nil
	}

	var notBefore time.Time
	link, err := s.Store.Links().GetLink(ctx, requesterID, subjectID)
	switch {
	case err == nil && link.RevokedAt != nil:
		notBefore = *link.RevokedAt
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return false, unavailable("load link", err)
	}

	hash := s.Challenges.fingerprint(requesterID, subjectID, code)
	_, err = s.Store.Challenges().FindVerifiedChallenge(ctx, requesterID, subjectID, hash, notBefore, s.now())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, unavailable("find verified challenge", err)
	}
}

func (s *LinkService) upsertLink(ctx context.Context, requesterID, subjectID string) error {
	now := s.now()
	err := s.Store.Links().UpsertLink(ctx, domain.ConsentLink{
		ID:          idx.NewAt(now).String(),
		RequesterID: requesterID,
		SubjectID:   subjectID,
		ConsentedAt: now,
		Consent:     true,
	})
	if err != nil {
		return unavailable("upsert link", err)
	}
	return nil
}

// Unlink withdraws consent. Unlinking an unlinked pair is not an error.
func (s *LinkService) Unlink(ctx context.Context, requesterID, subjectID string) error {
	revoked, err := s.Store.Links().RevokeLink(ctx, requesterID, subjectID, s.now())
	if err != nil {
		return unavailable("revoke link", err)
	}
	if revoked {
		slogx.FromContext(ctx).Info("consent link revoked",
			slog.String("requester_id", requesterID),
			slog.String("subject_id", subjectID),
		)
	}
	return nil
}

// Authorize returns nil only when the requester holds an active link.
func (s *LinkService) Authorize(ctx context.Context, requesterID, subjectID string) error {
	link, err := s.Store.Links().GetLink(ctx, requesterID, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return unavailable("load link", err)
	}
	if !link.Active() {
		return ErrNotFound
	}
	return nil
}

// ListLinks returns the requester's active links, newest first.
func (s *LinkService) ListLinks(ctx context.Context, requesterID string) ([]domain.ConsentLink, error) {
	links, err := s.Store.Links().ListActiveLinks(ctx, requesterID)
	if err != nil {
		return nil, unavailable("list links", err)
	}
	return links, nil
}
