package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"relocation_quiz_backend/internal/leads/domain"
	"relocation_quiz_backend/platform/apperr"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memoryStore struct {
	records []domain.RateLimitRecord
	err     error
}

func (s *memoryStore) LatestSubmission(_ context.Context, email string, formType domain.FormType, since time.Time) (time.Time, bool, error) {
	if s.err != nil {
		return time.Time{}, false, s.err
	}
	var latest time.Time
	found := false
	for _, r := range s.records {
		if r.Email != email || r.FormType != formType || r.SubmittedAt.Before(since) {
			continue
		}
		if !found || r.SubmittedAt.After(latest) {
			latest = r.SubmittedAt
			found = true
		}
	}
	return latest, found, nil
}

func (s *memoryStore) InsertRateLimitRecord(_ context.Context, record domain.RateLimitRecord) error {
	s.records = append(s.records, record)
	return nil
}

func testWindows() Windows {
	return Windows{Contact: 300 * time.Second, LeadMagnet: 120 * time.Second, Quiz: 180 * time.Second}
}

func TestLimiterWindowWithSimulatedClock(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := &memoryStore{}
	limiter := New(store, testWindows(), WithClock(clock))

	first, err := limiter.Check(ctx, "a@example.com", domain.FormContact)
	if err != nil || !first.Allowed {
		t.Fatalf("expected first submission allowed, got %+v, %v", first, err)
	}
	if err := limiter.Record(ctx, "a@example.com", domain.FormContact, "10.0.0.1"); err != nil {
		t.Fatalf("record: %v", err)
	}

	clock.Advance(60 * time.Second)
	second, err := limiter.Check(ctx, "a@example.com", domain.FormContact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Allowed {
		t.Fatalf("expected second submission rejected")
	}
	if second.RetryAfter != 240*time.Second {
		t.Fatalf("expected 240s retry hint, got %s", second.RetryAfter)
	}

	clock.Advance(241 * time.Second)
	third, err := limiter.Check(ctx, "a@example.com", domain.FormContact)
	if err != nil || !third.Allowed {
		t.Fatalf("expected third submission allowed after window, got %+v, %v", third, err)
	}
}

func TestLimiterKeysByEmailAndForm(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := New(&memoryStore{}, testWindows(), WithClock(clock))

	if err := limiter.Record(ctx, "a@example.com", domain.FormQuiz, ""); err != nil {
		t.Fatalf("record: %v", err)
	}

	other, _ := limiter.Check(ctx, "b@example.com", domain.FormQuiz)
	if !other.Allowed {
		t.Fatalf("different email must not be throttled")
	}
	otherForm, _ := limiter.Check(ctx, "a@example.com", domain.FormLeadMagnet)
	if !otherForm.Allowed {
		t.Fatalf("different form must not be throttled")
	}
	same, _ := limiter.Check(ctx, "a@example.com", domain.FormQuiz)
	if same.Allowed {
		t.Fatalf("same email and form must be throttled")
	}
}

func TestLimiterPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection reset")
	limiter := New(&memoryStore{err: storeErr}, testWindows())

	if _, err := limiter.Check(context.Background(), "a@example.com", domain.FormQuiz); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestLimiterUnknownFormIsConfigurationError(t *testing.T) {
	limiter := New(&memoryStore{}, testWindows())

	_, err := limiter.Check(context.Background(), "a@example.com", domain.FormType("survey"))
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestWaitMessage(t *testing.T) {
	cases := map[time.Duration]string{
		300 * time.Second: "Please wait 5 minutes before submitting again.",
		120 * time.Second: "Please wait 2 minutes before submitting again.",
		90 * time.Second:  "Please wait 2 minutes before submitting again.",
		60 * time.Second:  "Please wait 1 minute before submitting again.",
		30 * time.Second:  "Please wait 30 seconds before submitting again.",
	}
	for window, want := range cases {
		if got := WaitMessage(window); got != want {
			t.Fatalf("WaitMessage(%s) = %q, want %q", window, got, want)
		}
	}
}

func TestRejectedError(t *testing.T) {
	err := RejectedError(Decision{Window: 180 * time.Second, RetryAfter: 42 * time.Second})

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr, got %T", err)
	}
	if appErr.HTTPStatus() != http.StatusTooManyRequests || appErr.RetryAfter != 42*time.Second {
		t.Fatalf("unexpected error: %+v", appErr)
	}
	if appErr.Message != "Please wait 3 minutes before submitting again." {
		t.Fatalf("unexpected message: %q", appErr.Message)
	}
}
