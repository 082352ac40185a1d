package service

import (
	"context"
	"errors"
	"strings"

	"relocation_quiz_backend/internal/leads/repository"
	"relocation_quiz_backend/internal/leads/transport"
	"relocation_quiz_backend/internal/leads/validation"
	"relocation_quiz_backend/platform/apperr"
	"relocation_quiz_backend/platform/logger"
	"relocation_quiz_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	msgLeadNotFound    = "Lead not found"
	msgNothingToUpdate = "Nothing to update"
)

// AdminService serves the lead review UI. It is the only writer of the
// workflow fields (status, notes, tags) after a lead is created.
type AdminService struct {
	store     repository.LeadAdminStore
	validator *validation.Validator
	log       *logger.Logger
}

func NewAdminService(store repository.LeadAdminStore, val *validation.Validator, log *logger.Logger) *AdminService {
	return &AdminService{store: store, validator: val, log: log}
}

// List returns one page of leads and the unpaged total.
func (s *AdminService) List(ctx context.Context, q transport.ListLeadsQuery) (transport.ListLeadsResponse, error) {
	if err := s.validator.Struct(&q); err != nil {
		return transport.ListLeadsResponse{}, err
	}

	params := repository.ListParams{
		FormType: q.FormType,
		Tier:     q.Tier,
		Status:   q.Status,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}

	var (
		page  []transport.LeadResponse
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		leads, err := s.store.ListLeads(gctx, params)
		if err != nil {
			return err
		}
		page = transport.ToLeadResponses(leads)
		return nil
	})
	g.Go(func() error {
		count, err := s.store.CountLeads(gctx, params)
		if err != nil {
			return err
		}
		total = count
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.WithContext(ctx).DatabaseError("list leads", err)
		return transport.ListLeadsResponse{}, apperr.Wrap(apperr.KindInternal, msgInternal, err)
	}

	return transport.ListLeadsResponse{Items: page, Total: total}, nil
}

func (s *AdminService) Get(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.store.GetLead(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFound(msgLeadNotFound)
	}
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("get lead", err)
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, msgInternal, err)
	}
	return transport.ToLeadResponse(lead), nil
}

// Update patches the workflow fields. Omitted fields stay unchanged.
// actor is the token subject of the admin making the change.
func (s *AdminService) Update(ctx context.Context, id uuid.UUID, actor string, req *transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	if req.Status == nil && req.AdminNotes == nil && req.Tags == nil {
		return transport.LeadResponse{}, apperr.BadRequest(msgNothingToUpdate)
	}

	if req.AdminNotes != nil {
		notes := sanitize.Text(*req.AdminNotes)
		req.AdminNotes = &notes
	}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		req.Status = &status
	}
	if req.Tags != nil {
		tags := []string(transport.NewStringSet(*req.Tags...))
		req.Tags = &tags
	}
	if err := s.validator.Struct(req); err != nil {
		return transport.LeadResponse{}, err
	}

	lead, err := s.store.UpdateLeadWorkflow(ctx, id, repository.UpdateWorkflowParams{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
		Tags:       req.Tags,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFound(msgLeadNotFound)
	}
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("update lead", err)
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, msgInternal, err)
	}

	s.log.WithContext(ctx).Info("lead workflow updated", "lead_id", id.String(), "updated_by", actor)
	return transport.ToLeadResponse(lead), nil
}
