// Package service runs the public form submission pipeline:
// validate, rate check, score (quiz only), persist, record.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"relocation_quiz_backend/internal/leads/domain"
	"relocation_quiz_backend/internal/leads/ratelimit"
	"relocation_quiz_backend/internal/leads/repository"
	"relocation_quiz_backend/internal/leads/transport"
	"relocation_quiz_backend/internal/leads/validation"
	"relocation_quiz_backend/internal/savings"
	"relocation_quiz_backend/platform/apperr"
	"relocation_quiz_backend/platform/logger"
	"relocation_quiz_backend/platform/phone"
)

const (
	stageValidate   = "validate"
	stageRateCheck  = "rate_check"
	stageScore      = "score"
	stagePersist    = "persist"
	stageRateRecord = "rate_record"

	outcomeInvalid     = "invalid"
	outcomeRateLimited = "rate_limited"
	outcomeDuplicate   = "duplicate"

	msgInternal      = "Something went wrong. Please try again."
	msgQuizDuplicate = "You have already completed the quiz with this email address."
)

// Store is the part of the persistence gateway the pipeline writes to.
type Store interface {
	repository.SessionStore
	repository.LeadWriter
	repository.RateLimitStore
}

// GuideLinker produces the lead-magnet download link.
type GuideLinker interface {
	GuideURL(ctx context.Context) (string, error)
}

// Meta is request metadata stored alongside a lead.
type Meta struct {
	IPAddress string
	UserAgent string
}

// Service orchestrates the three public forms.
type Service struct {
	store     Store
	validator *validation.Validator
	limiter   *ratelimit.Limiter
	calc      *savings.Calculator
	guides    GuideLinker
	timeout   time.Duration
	log       *logger.Logger
}

// New creates the submission service. timeout bounds every submission.
func New(store Store, val *validation.Validator, limiter *ratelimit.Limiter, calc *savings.Calculator, timeout time.Duration, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		validator: val,
		limiter:   limiter,
		calc:      calc,
		timeout:   timeout,
		log:       log,
	}
}

// SetGuideLinker enables the download link on lead-magnet responses.
func (s *Service) SetGuideLinker(guides GuideLinker) {
	s.guides = guides
}

// SubmitContact runs the contact form pipeline. Contact leads are repeatable
// and only throttled.
func (s *Service) SubmitContact(ctx context.Context, req *transport.ContactRequest, meta Meta) (transport.SubmissionResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	log := s.log.WithContext(ctx)

	if err := s.validate(log, domain.FormContact, req, &req.Email); err != nil {
		return transport.SubmissionResponse{}, err
	}
	if err := s.checkRate(ctx, log, domain.FormContact, req.Email); err != nil {
		return transport.SubmissionResponse{}, err
	}

	lead := domain.Lead{
		FormType:        domain.FormContact,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           phone.NormalizeE164(req.Phone),
		Location:        req.Location,
		InvestmentRange: req.InvestmentRange,
		Message:         req.Message,
		Status:          domain.StatusNew,
		IPAddress:       meta.IPAddress,
		UserAgent:       meta.UserAgent,
	}
	lead.Tags = domain.DeriveTags(lead)

	created, err := s.store.CreateLead(ctx, lead)
	if err != nil {
		return transport.SubmissionResponse{}, s.fail(log, domain.FormContact, req.Email, stagePersist, err)
	}

	s.recordRate(ctx, log, domain.FormContact, req.Email, meta.IPAddress)
	log.SubmissionAccepted(string(domain.FormContact), req.Email, "lead_id", created.ID.String())
	return transport.SubmissionResponse{Success: true}, nil
}

// SubmitLeadMagnet runs the guide download pipeline. A repeat email is an
// idempotent success.
func (s *Service) SubmitLeadMagnet(ctx context.Context, req *transport.LeadMagnetRequest, meta Meta) (transport.LeadMagnetResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	log := s.log.WithContext(ctx)

	if err := s.validate(log, domain.FormLeadMagnet, req, &req.Email); err != nil {
		return transport.LeadMagnetResponse{}, err
	}
	if err := s.checkRate(ctx, log, domain.FormLeadMagnet, req.Email); err != nil {
		return transport.LeadMagnetResponse{}, err
	}

	lead := domain.Lead{
		FormType:  domain.FormLeadMagnet,
		Email:     req.Email,
		Status:    domain.StatusNew,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	lead.Tags = domain.DeriveTags(lead)

	_, err := s.store.CreateLead(ctx, lead)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		log.SubmissionRejected(string(domain.FormLeadMagnet), req.Email, outcomeDuplicate, stagePersist)
	case err != nil:
		return transport.LeadMagnetResponse{}, s.fail(log, domain.FormLeadMagnet, req.Email, stagePersist, err)
	default:
		log.SubmissionAccepted(string(domain.FormLeadMagnet), req.Email)
	}

	s.recordRate(ctx, log, domain.FormLeadMagnet, req.Email, meta.IPAddress)

	resp := transport.LeadMagnetResponse{Success: true}
	if s.guides != nil {
		url, err := s.guides.GuideURL(ctx)
		if err != nil {
			log.Warn("lead magnet download link unavailable", "error", err)
		} else {
			resp.DownloadURL = url
		}
	}
	return resp, nil
}

// SubmitQuiz runs the quiz pipeline. The savings breakdown is always
// recomputed from the answers; the client figure is only compared.
func (s *Service) SubmitQuiz(ctx context.Context, req *transport.QuizSubmissionRequest, meta Meta) (transport.QuizSubmissionResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	log := s.log.WithContext(ctx)

	if err := s.validate(log, domain.FormQuiz, req, &req.Email); err != nil {
		return transport.QuizSubmissionResponse{}, err
	}
	if err := s.checkRate(ctx, log, domain.FormQuiz, req.Email); err != nil {
		return transport.QuizSubmissionResponse{}, err
	}

	a := req.Answers
	breakdown, err := s.calc.Compute(a.IncomeBracket, a.MonthlyCost, a.AgeRange, savings.Adjustments{})
	if err != nil {
		return transport.QuizSubmissionResponse{}, s.fail(log, domain.FormQuiz, req.Email, stageScore, err)
	}
	s.compareClientSavings(log, req, breakdown)

	tier := domain.ClassifyTier(a.Timeline, breakdown.AnnualSavings)
	annual := breakdown.AnnualSavings

	lead := domain.Lead{
		FormType:   domain.FormQuiz,
		Email:      req.Email,
		FirstName:  req.FirstName,
		Phone:      phone.NormalizeE164(req.Phone),
		SMSConsent: req.SMSConsent,
		SessionID:  req.SessionID,
		Answers: &domain.QuizAnswers{
			HousingStatus: a.HousingStatus,
			MonthlyCost:   a.MonthlyCost,
			IncomeBracket: a.IncomeBracket,
			AgeRange:      a.AgeRange,
			Frustration:   []string(a.Frustration),
			Benefit:       []string(a.Benefit),
			Timeline:      a.Timeline,
			Concern:       a.Concern,
		},
		Savings:       &breakdown,
		AnnualSavings: &annual,
		Tier:          tier,
		Priority:      domain.PriorityFor(tier),
		Status:        domain.StatusNew,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
	}
	lead.Tags = domain.DeriveTags(lead)

	created, err := s.store.CreateLead(ctx, lead)
	if errors.Is(err, repository.ErrDuplicate) {
		log.SubmissionRejected(string(domain.FormQuiz), req.Email, outcomeDuplicate, stagePersist)
		return transport.QuizSubmissionResponse{}, apperr.Conflict(msgQuizDuplicate)
	}
	if err != nil {
		return transport.QuizSubmissionResponse{}, s.fail(log, domain.FormQuiz, req.Email, stagePersist, err)
	}

	s.recordRate(ctx, log, domain.FormQuiz, req.Email, meta.IPAddress)
	log.SubmissionAccepted(string(domain.FormQuiz), req.Email,
		"lead_id", created.ID.String(),
		"tier", string(tier),
		"annual_savings", annual,
	)

	return transport.QuizSubmissionResponse{
		Success:       true,
		Tier:          string(tier),
		AnnualSavings: annual,
		Savings:       breakdown,
	}, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// validate normalizes payload in place. email points at the payload's email
// field so rejections are logged with the normalized address.
func (s *Service) validate(log *logger.Logger, formType domain.FormType, payload any, email *string) error {
	err := s.validator.Validate(formType, payload)
	if err == nil {
		return nil
	}
	if apperr.Is(err, apperr.KindValidation) {
		log.SubmissionRejected(string(formType), *email, outcomeInvalid, stageValidate)
		return err
	}
	return s.fail(log, formType, *email, stageValidate, err)
}

func (s *Service) checkRate(ctx context.Context, log *logger.Logger, formType domain.FormType, email string) error {
	decision, err := s.limiter.Check(ctx, email, formType)
	if err != nil {
		return s.fail(log, formType, email, stageRateCheck, err)
	}
	if !decision.Allowed {
		log.SubmissionRejected(string(formType), email, outcomeRateLimited, stageRateCheck)
		return ratelimit.RejectedError(decision)
	}
	return nil
}

// recordRate is best-effort: the lead is already stored, so a failure only
// weakens future throttling.
func (s *Service) recordRate(ctx context.Context, log *logger.Logger, formType domain.FormType, email, ip string) {
	if err := s.limiter.Record(ctx, email, formType, ip); err != nil {
		log.Warn("rate limit record not written",
			"form_type", string(formType),
			"email", email,
			"stage", stageRateRecord,
			"error", err,
		)
	}
}

// fail logs an unexpected error with its stage and returns a generic
// internal error that never carries the cause to the caller.
func (s *Service) fail(log *logger.Logger, formType domain.FormType, email, stage string, err error) error {
	log.SubmissionFailed(string(formType), email, stage, err)
	return apperr.Wrap(apperr.KindInternal, msgInternal, err).WithOp(string(formType) + "." + stage)
}

func (s *Service) compareClientSavings(log *logger.Logger, req *transport.QuizSubmissionRequest, breakdown savings.Breakdown) {
	if req.SavingsCalculation == nil || req.SavingsCalculation.AnnualSavings == nil {
		return
	}
	client := int64(math.Round(*req.SavingsCalculation.AnnualSavings))
	if client != breakdown.AnnualSavings {
		log.Debug("client savings differ from server calculation",
			"session_id", req.SessionID,
			"client_annual_savings", client,
			"server_annual_savings", breakdown.AnnualSavings,
		)
	}
}
