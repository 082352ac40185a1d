package service

import (
	"context"
	"io"
	"testing"
	"time"

	"relocation_quiz_backend/internal/leads/domain"
	"relocation_quiz_backend/internal/leads/leadstest"
	"relocation_quiz_backend/internal/leads/transport"
	"relocation_quiz_backend/internal/leads/validation"
	"relocation_quiz_backend/internal/savings"
	"relocation_quiz_backend/platform/apperr"
	"relocation_quiz_backend/platform/logger"
	"relocation_quiz_backend/platform/validator"

	"github.com/google/uuid"
)

func newAdminFixture(t *testing.T) (*AdminService, *leadstest.Store, *leadstest.Clock) {
	t.Helper()

	brackets, err := savings.Default()
	if err != nil {
		t.Fatalf("load brackets: %v", err)
	}
	val, err := validation.New(validator.New(), brackets)
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}

	clock := leadstest.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := leadstest.NewStore(clock.Now)
	return NewAdminService(store, val, logger.NewWithWriter("test", io.Discard)), store, clock
}

func seedLead(t *testing.T, store *leadstest.Store, lead domain.Lead) domain.Lead {
	t.Helper()
	created, err := store.CreateLead(context.Background(), lead)
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return created
}

func TestAdminListFiltersAndCounts(t *testing.T) {
	svc, store, clock := newAdminFixture(t)

	seedLead(t, store, domain.Lead{FormType: domain.FormContact, Email: "a@example.com"})
	clock.Advance(time.Minute)
	seedLead(t, store, domain.Lead{FormType: domain.FormLeadMagnet, Email: "b@example.com"})
	clock.Advance(time.Minute)
	seedLead(t, store, domain.Lead{FormType: domain.FormContact, Email: "c@example.com"})

	resp, err := svc.List(context.Background(), transport.ListLeadsQuery{FormType: "contact", Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 1 {
		t.Fatalf("expected 1 of 2 contact leads, got %d of %d", len(resp.Items), resp.Total)
	}
	if resp.Items[0].Email != "c@example.com" {
		t.Fatalf("expected newest lead first, got %s", resp.Items[0].Email)
	}
}

func TestAdminListRejectsUnknownFilter(t *testing.T) {
	svc, _, _ := newAdminFixture(t)

	_, err := svc.List(context.Background(), transport.ListLeadsQuery{Tier: "lukewarm"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminUpdateWorkflowFields(t *testing.T) {
	svc, store, _ := newAdminFixture(t)
	lead := seedLead(t, store, domain.Lead{FormType: domain.FormContact, Email: "a@example.com", Tags: []string{"contact"}})

	status := " Contacted "
	notes := "Called, <b>left voicemail</b>"
	tags := []string{"vip", "contact", "vip"}
	resp, err := svc.Update(context.Background(), lead.ID, "admin-1", &transport.UpdateLeadRequest{
		Status:     &status,
		AdminNotes: &notes,
		Tags:       &tags,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "contacted" || resp.AdminNotes != "Called, left voicemail" {
		t.Fatalf("unexpected workflow fields: %+v", resp)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "contact" || resp.Tags[1] != "vip" {
		t.Fatalf("unexpected tags: %v", resp.Tags)
	}
}

func TestAdminUpdateRejectsUnknownStatus(t *testing.T) {
	svc, store, _ := newAdminFixture(t)
	lead := seedLead(t, store, domain.Lead{FormType: domain.FormContact, Email: "a@example.com"})

	status := "archived"
	_, err := svc.Update(context.Background(), lead.ID, "admin-1", &transport.UpdateLeadRequest{Status: &status})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminUpdateRequiresAField(t *testing.T) {
	svc, _, _ := newAdminFixture(t)

	_, err := svc.Update(context.Background(), uuid.New(), "admin-1", &transport.UpdateLeadRequest{})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestAdminGetNotFound(t *testing.T) {
	svc, _, _ := newAdminFixture(t)

	_, err := svc.Get(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
