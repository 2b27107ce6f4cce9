package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/notify"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/aussiebroadwan/carelink/pkg/cryptox"
	"github.com/aussiebroadwan/carelink/pkg/idx"
	"github.com/aussiebroadwan/carelink/pkg/slogx"
)

const (
	DefaultChallengeTTL     = 10 * time.Minute
	DefaultChallengeWindow  = 60 * time.Minute
	DefaultChallengesPerWin = 3
	DefaultSendTimeout      = 10 * time.Second
)

// VerifyOutcome is the result of VerifyChallenge. Wrong, expired, used and
// never-issued codes all collapse to VerifyInvalid.
type VerifyOutcome int

const (
	VerifyInvalid VerifyOutcome = iota
	VerifyVerified
)

func (o VerifyOutcome) String() string {
	if o == VerifyVerified {
		return "verified"
	}
	return "invalid"
}

// ChallengeService is the only component that mints or consumes one-time
// codes. Zero durations fall back to the Default* constants.
type ChallengeService struct {
	Store  store.Store
	Sender notify.Sender
	Hasher *cryptox.CodeHasher

	TTL          time.Duration
	Window       time.Duration
	MaxPerWindow int
	SendTimeout  time.Duration

	Now func() time.Time
}

func (s *ChallengeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ChallengeService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultChallengeTTL
}

func (s *ChallengeService) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultChallengeWindow
}

func (s *ChallengeService) maxPerWindow() int {
	if s.MaxPerWindow > 0 {
		return s.MaxPerWindow
	}
	return DefaultChallengesPerWin
}

func (s *ChallengeService) sendTimeout() time.Duration {
	if s.SendTimeout > 0 {
		return s.SendTimeout
	}
	return DefaultSendTimeout
}

func isCode(code string) bool {
	return cryptox.IsNumericCode(code, cryptox.DefaultCodeDigits)
}

// fingerprint binds a code to its (requester, subject) pair.
func (s *ChallengeService) fingerprint(requesterID, subjectID, code string) string {
	return s.Hasher.Fingerprint(code, requesterID, subjectID)
}

// IssueChallenge mints a code for the pair, stores its fingerprint and
// delivers it to the subject's email address. The code is never returned.
//
// A challenge whose delivery fails stays in the store and expires unused.
func (s *ChallengeService) IssueChallenge(ctx context.Context, requesterID, subjectID string) (domain.ChallengeHandle, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("requester_id", requesterID),
		slog.String("subject_id", subjectID),
	)

	// 1. Both ends must exist.
	if _, err := s.Store.Requesters().GetRequesterByID(ctx, requesterID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ChallengeHandle{}, ErrNotFound
		}
		return domain.ChallengeHandle{}, unavailable("load requester", err)
	}
	subject, err := s.Store.Subjects().GetSubjectByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ChallengeHandle{}, ErrNotFound
		}
		return domain.ChallengeHandle{}, unavailable("load subject", err)
	}

	// 2. No address, no challenge.
	if subject.Email == "" {
		log.Info("challenge refused: subject has no delivery address")
		return domain.ChallengeHandle{}, ErrNoDeliveryChannel
	}

	code, err := cryptox.NewNumericCode(cryptox.DefaultCodeDigits)
	if err != nil {
		return domain.ChallengeHandle{}, unavailable("generate code", err)
	}

	now := s.now()
	challenge := domain.Challenge{
		ID:          idx.NewAt(now).String(),
		RequesterID: requesterID,
		SubjectID:   subjectID,
		CodeHash:    s.fingerprint(requesterID, subjectID, code),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl()),
	}

	// 3. Sliding-window limit and insert, atomically per pair.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Challenges().LockPair(ctx, requesterID, subjectID); err != nil {
			return err
		}

		since := now.Add(-s.window())
		n, err := tx.Challenges().CountChallengesSince(ctx, requesterID, subjectID, since)
		if err != nil {
			return err
		}
		if n >= s.maxPerWindow() {
			oldest, err := tx.Challenges().OldestChallengeSince(ctx, requesterID, subjectID, since)
			if err != nil {
				return err
			}
			return &RateLimitError{RetryAfter: max(oldest.Add(s.window()).Sub(now), time.Second)}
		}

		return tx.Challenges().CreateChallenge(ctx, challenge)
	})
	if err != nil {
		var rl *RateLimitError
		if errors.As(err, &rl) {
			log.Warn("challenge rate limited", slog.Duration("retry_after", rl.RetryAfter))
			return domain.ChallengeHandle{}, rl
		}
		log.Error("failed to persist challenge", slog.Any("error", err))
		return domain.ChallengeHandle{}, unavailable("persist challenge", err)
	}

	log = log.With(slog.String("challenge_id", challenge.ID))

	// 4. Deliver. A timeout counts as a failed delivery.
	subjectLine, body, err := notify.CodeMessage{Code: code, TTL: s.ttl()}.Render()
	if err != nil {
		return domain.ChallengeHandle{}, unavailable("render message", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout())
	defer cancel()
	if err := s.Sender.Send(sendCtx, subject.Email, subjectLine, body); err != nil {
		log.Error("challenge delivery failed", slog.Any("error", err))
		return domain.ChallengeHandle{}, unavailable("deliver code", err)
	}

	log.Info("challenge issued", slog.Time("expires_at", challenge.ExpiresAt))

	return domain.ChallengeHandle{
		ID:          challenge.ID,
		SubjectID:   subjectID,
		ExpiresAt:   challenge.ExpiresAt,
		Destination: notify.MaskEmail(subject.Email),
	}, nil
}

// VerifyChallenge latches the newest usable challenge matching code. Only
// one caller can ever win the latch for a given challenge.
func (s *ChallengeService) VerifyChallenge(ctx context.Context, requesterID, subjectID, code string) (VerifyOutcome, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("requester_id", requesterID),
		slog.String("subject_id", subjectID),
	)

	if !isCode(code) {
		return VerifyInvalid, nil
	}

	now := s.now()
	c, err := s.Store.Challenges().FindUsableChallenge(ctx, requesterID, subjectID, s.fingerprint(requesterID, subjectID, code), now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("challenge verification failed")
			return VerifyInvalid, nil
		}
		return VerifyInvalid, unavailable("find challenge", err)
	}
	if !c.UsableAt(now) {
		return VerifyInvalid, nil
	}

	ok, err := s.Store.Challenges().MarkChallengeVerified(ctx, c.ID, now)
	if err != nil {
		return VerifyInvalid, unavailable("latch challenge", err)
	}
	if !ok {
		log.Info("challenge already verified by a concurrent call", slog.String("challenge_id", c.ID))
		return VerifyInvalid, nil
	}

	log.Info("challenge verified", slog.String("challenge_id", c.ID))
	return VerifyVerified, nil
}
