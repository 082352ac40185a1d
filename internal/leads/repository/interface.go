package repository

import (
	"context"
	"time"

	"relocation_quiz_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// SessionStore persists quiz sessions and their answers.
type SessionStore interface {
	// CreateSession inserts the session unless it exists. created is false
	// when the session was already registered.
	CreateSession(ctx context.Context, session domain.QuizSession) (created bool, err error)
	// UpsertAnswer writes one answer per (session, question). Returns
	// ErrSessionNotFound for an unknown session.
	UpsertAnswer(ctx context.Context, answer domain.QuizAnswer) error
}

// LeadWriter creates leads. Uniqueness of (form type, email) for quiz and
// lead-magnet leads is enforced here and surfaces as ErrDuplicate.
type LeadWriter interface {
	CreateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error)
}

// RateLimitStore reads and appends rate-limit records.
type RateLimitStore interface {
	LatestSubmission(ctx context.Context, email string, formType domain.FormType, since time.Time) (time.Time, bool, error)
	InsertRateLimitRecord(ctx context.Context, record domain.RateLimitRecord) error
}

// RateLimitPruner deletes stale rate-limit records.
type RateLimitPruner interface {
	PruneRateLimitRecords(ctx context.Context, before time.Time) (int64, error)
}

// LeadAdminStore backs the admin API.
type LeadAdminStore interface {
	ListLeads(ctx context.Context, params ListParams) ([]domain.Lead, error)
	CountLeads(ctx context.Context, params ListParams) (int, error)
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	UpdateLeadWorkflow(ctx context.Context, id uuid.UUID, params UpdateWorkflowParams) (domain.Lead, error)
}

// LeadsRepository is the full persistence gateway.
type LeadsRepository interface {
	SessionStore
	LeadWriter
	RateLimitStore
	RateLimitPruner
	LeadAdminStore
}

// ListParams filters and pages the admin lead list.
type ListParams struct {
	FormType string
	Tier     string
	Status   string
	Limit    int
	Offset   int
}

// UpdateWorkflowParams carries the admin-owned fields. Nil means unchanged.
type UpdateWorkflowParams struct {
	Status     *string
	AdminNotes *string
	Tags       *[]string
}

var _ LeadsRepository = (*Repository)(nil)
