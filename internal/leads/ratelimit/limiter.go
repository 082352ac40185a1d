// Package ratelimit throttles repeat form submissions per (email, form type)
// using the stored RateLimitRecords.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"relocation_quiz_backend/internal/leads/domain"
	"relocation_quiz_backend/platform/apperr"
)

// Store is the slice of the persistence gateway the limiter needs.
//
// Check and Record are two separate calls and are not atomic: two concurrent
// submissions for the same key can both pass Check before either Record
// lands. The unique index on leads is the backstop against duplicate leads.
// A stronger guarantee needs a single insert-if-absent-in-window statement
// in the store, not locking here.
type Store interface {
	LatestSubmission(ctx context.Context, email string, formType domain.FormType, since time.Time) (time.Time, bool, error)
	InsertRateLimitRecord(ctx context.Context, record domain.RateLimitRecord) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Windows holds the per-form throttle windows.
type Windows struct {
	Contact    time.Duration
	LeadMagnet time.Duration
	Quiz       time.Duration
}

// Decision is the outcome of a Check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Window     time.Duration
}

// Limiter answers whether a submission may proceed. It never blocks the
// write it protects.
type Limiter struct {
	store   Store
	clock   Clock
	windows Windows
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(l *Limiter) { l.clock = clock }
}

// New creates a limiter backed by store.
func New(store Store, windows Windows, opts ...Option) *Limiter {
	l := &Limiter{store: store, clock: realClock{}, windows: windows}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Window returns the configured window for formType.
func (l *Limiter) Window(formType domain.FormType) time.Duration {
	switch formType {
	case domain.FormContact:
		return l.windows.Contact
	case domain.FormLeadMagnet:
		return l.windows.LeadMagnet
	case domain.FormQuiz:
		return l.windows.Quiz
	default:
		return 0
	}
}

// Check reports whether email may submit formType now. A stored record
// strictly inside the window rejects the submission.
func (l *Limiter) Check(ctx context.Context, email string, formType domain.FormType) (Decision, error) {
	window := l.Window(formType)
	if window <= 0 {
		return Decision{}, apperr.Configuration(fmt.Sprintf("no rate limit window for form %q", formType))
	}

	now := l.clock.Now()
	last, found, err := l.store.LatestSubmission(ctx, email, formType, now.Add(-window))
	if err != nil {
		return Decision{}, err
	}
	if !found || now.Sub(last) >= window {
		return Decision{Allowed: true, Window: window}, nil
	}

	return Decision{
		Allowed:    false,
		RetryAfter: window - now.Sub(last),
		Window:     window,
	}, nil
}

// Record stores a new rate-limit record stamped with the limiter clock.
// Callers invoke it only after the protected write succeeded.
func (l *Limiter) Record(ctx context.Context, email string, formType domain.FormType, ipAddress string) error {
	return l.store.InsertRateLimitRecord(ctx, domain.RateLimitRecord{
		Email:       email,
		FormType:    formType,
		IPAddress:   ipAddress,
		SubmittedAt: l.clock.Now(),
	})
}

// RejectedError builds the user-facing rate-limit error for a rejected decision.
func RejectedError(d Decision) error {
	return apperr.RateLimited(WaitMessage(d.Window), d.RetryAfter)
}

// WaitMessage renders the configured window as a human wait hint.
func WaitMessage(window time.Duration) string {
	if window < time.Minute {
		seconds := int(math.Ceil(window.Seconds()))
		return fmt.Sprintf("Please wait %d %s before submitting again.", seconds, plural(seconds, "second"))
	}
	minutes := int(math.Ceil(window.Minutes()))
	return fmt.Sprintf("Please wait %d %s before submitting again.", minutes, plural(minutes, "minute"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
