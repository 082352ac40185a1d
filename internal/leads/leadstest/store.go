// Package leadstest provides an in-memory persistence gateway and a manual
// clock for tests of the leads packages.
package leadstest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"relocation_quiz_backend/internal/leads/domain"
	"relocation_quiz_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Store mirrors the constraints of the SQL schema: unique (form type, email)
// for quiz and lead-magnet leads and a session reference for quiz leads.
type Store struct {
	mu         sync.Mutex
	clock      func() time.Time
	sessions   map[string]domain.QuizSession
	answers    map[string]domain.QuizAnswer
	leads      []domain.Lead
	rateLimits []domain.RateLimitRecord

	// FailCreateLead, when set, is returned by CreateLead.
	FailCreateLead error
	// FailRateLimitInsert, when set, is returned by InsertRateLimitRecord.
	FailRateLimitInsert error
}

var _ repository.LeadsRepository = (*Store)(nil)

// NewStore creates an empty store stamping rows with clock.
func NewStore(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		clock:    clock,
		sessions: map[string]domain.QuizSession{},
		answers:  map[string]domain.QuizAnswer{},
	}
}

func (s *Store) CreateSession(_ context.Context, session domain.QuizSession) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.SessionID]; ok {
		return false, nil
	}
	session.CreatedAt = s.clock()
	s.sessions[session.SessionID] = session
	return true, nil
}

func (s *Store) UpsertAnswer(_ context.Context, answer domain.QuizAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[answer.SessionID]; !ok {
		return repository.ErrSessionNotFound
	}
	s.answers[answer.SessionID+"/"+answer.QuestionKey] = answer
	return nil
}

// Answer returns a stored answer.
func (s *Store) Answer(sessionID, questionKey string) (domain.QuizAnswer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[sessionID+"/"+questionKey]
	return a, ok
}

func (s *Store) CreateLead(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCreateLead != nil {
		return domain.Lead{}, s.FailCreateLead
	}
	if lead.FormType == domain.FormQuiz || lead.FormType == domain.FormLeadMagnet {
		for _, existing := range s.leads {
			if existing.FormType == lead.FormType && strings.EqualFold(existing.Email, lead.Email) {
				return domain.Lead{}, repository.ErrDuplicate
			}
		}
	}
	if lead.SessionID != "" {
		if _, ok := s.sessions[lead.SessionID]; !ok {
			return domain.Lead{}, repository.ErrSessionNotFound
		}
	}

	now := s.clock()
	lead.ID = uuid.New()
	if lead.Status == "" {
		lead.Status = domain.StatusNew
	}
	lead.CreatedAt = now
	lead.UpdatedAt = now
	s.leads = append(s.leads, lead)
	return lead, nil
}

// Leads returns a copy of every stored lead in insertion order.
func (s *Store) Leads() []domain.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Lead(nil), s.leads...)
}

func (s *Store) LatestSubmission(_ context.Context, email string, formType domain.FormType, since time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest time.Time
	found := false
	for _, r := range s.rateLimits {
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

func (s *Store) InsertRateLimitRecord(_ context.Context, record domain.RateLimitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailRateLimitInsert != nil {
		return s.FailRateLimitInsert
	}
	s.rateLimits = append(s.rateLimits, record)
	return nil
}

// RateLimitRecords returns a copy of every stored rate-limit record.
func (s *Store) RateLimitRecords() []domain.RateLimitRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RateLimitRecord(nil), s.rateLimits...)
}

func (s *Store) PruneRateLimitRecords(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rateLimits[:0]
	var removed int64
	for _, r := range s.rateLimits {
		if r.SubmittedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rateLimits = kept
	return removed, nil
}

func (s *Store) ListLeads(_ context.Context, params repository.ListParams) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filter(params)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	start := params.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (s *Store) CountLeads(_ context.Context, params repository.ListParams) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filter(params)), nil
}

func (s *Store) GetLead(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lead := range s.leads {
		if lead.ID == id {
			return lead, nil
		}
	}
	return domain.Lead{}, repository.ErrNotFound
}

func (s *Store) UpdateLeadWorkflow(_ context.Context, id uuid.UUID, params repository.UpdateWorkflowParams) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.leads {
		if s.leads[i].ID != id {
			continue
		}
		if params.Status != nil {
			s.leads[i].Status = domain.Status(*params.Status)
		}
		if params.AdminNotes != nil {
			s.leads[i].AdminNotes = *params.AdminNotes
		}
		if params.Tags != nil {
			s.leads[i].Tags = append([]string(nil), (*params.Tags)...)
		}
		s.leads[i].UpdatedAt = s.clock()
		return s.leads[i], nil
	}
	return domain.Lead{}, repository.ErrNotFound
}

func (s *Store) filter(params repository.ListParams) []domain.Lead {
	out := make([]domain.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if params.FormType != "" && string(lead.FormType) != params.FormType {
			continue
		}
		if params.Tier != "" && string(lead.Tier) != params.Tier {
			continue
		}
		if params.Status != "" && string(lead.Status) != params.Status {
			continue
		}
		out = append(out, lead)
	}
	return out
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
