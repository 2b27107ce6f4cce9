package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/aussiebroadwan/carelink/internal/consent/store/drivers/sqlite"
	"github.com/aussiebroadwan/carelink/pkg/cryptox"
	"github.com/aussiebroadwan/carelink/pkg/idx"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMessage struct {
	Address, Subject, Body string
}

// fakeSender records messages and can be told to fail or hang.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
	hang bool
}

func (f *fakeSender) Send(ctx context.Context, address, subject, body string) error {
	if f.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{address, subject, body})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// lastCode pulls the code out of the most recent message.
func (f *fakeSender) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no message was sent")
	code := codePattern.FindString(f.sent[len(f.sent)-1].Body)
	require.NotEmpty(t, code)
	return code
}

type fixture struct {
	store      store.Store
	clock      *testClock
	sender     *fakeSender
	challenges *ChallengeService
	links      *LinkService
	grants     *GrantService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	hasher, err := cryptox.NewCodeHasher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	clock := newClock()
	sender := &fakeSender{}
	challenges := &ChallengeService{
		Store:  s,
		Sender: sender,
		Hasher: hasher,
		Now:    clock.Now,
	}

	return &fixture{
		store:      s,
		clock:      clock,
		sender:     sender,
		challenges: challenges,
		links:      &LinkService{Store: s, Challenges: challenges, Now: clock.Now},
		grants:     &GrantService{Store: s, Now: clock.Now},
	}
}

func (f *fixture) requester(t *testing.T, accountID string) domain.Requester {
	t.Helper()
	r := domain.Requester{
		ID:        idx.New().String(),
		Role:      domain.RolePartner,
		AccountID: accountID,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.store.Requesters().CreateRequester(context.Background(), r))
	return r
}

func (f *fixture) subject(t *testing.T, mutate func(*domain.Subject)) domain.Subject {
	t.Helper()
	s := domain.Subject{
		ID:             idx.New().String(),
		ShortCode:      "PT-" + idx.New().String()[20:],
		Email:          "jane@example.com",
		Phone:          "+61400000001",
		OwnerAccountID: "acct-patient-" + idx.New().String()[20:],
		CreatedAt:      f.clock.Now(),
	}
	if mutate != nil {
		mutate(&s)
	}
	require.NoError(t, f.store.Subjects().CreateSubject(context.Background(), s))
	return s
}

func (f *fixture) countChallenges(t *testing.T, requesterID, subjectID string) int {
	t.Helper()
	n, err := f.store.Challenges().CountChallengesSince(context.Background(), requesterID, subjectID, time.Unix(0, 0))
	require.NoError(t, err)
	return n
}

// wrongCode returns a well-formed code different from code.
func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

var errSMTPDown = errors.New("smtp: connection refused")
