// Package leads provides the lead intake bounded context module: the
// public website forms, quiz session capture and the admin review API.
package leads

import (
	apphttp "relocation_quiz_backend/internal/http"
	"relocation_quiz_backend/internal/leads/handler"
	"relocation_quiz_backend/internal/leads/ratelimit"
	"relocation_quiz_backend/internal/leads/repository"
	"relocation_quiz_backend/internal/leads/service"
	"relocation_quiz_backend/internal/leads/validation"
	"relocation_quiz_backend/internal/savings"
	"relocation_quiz_backend/platform/config"
	"relocation_quiz_backend/platform/logger"
	"relocation_quiz_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	public  *handler.PublicHandler
	admin   *handler.AdminHandler
	service *service.Service
	log     *logger.Logger
}

var _ apphttp.Module = (*Module)(nil)

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(repo repository.LeadsRepository, val *validator.Validator, calc *savings.Calculator, cfg config.SubmissionConfig, log *logger.Logger, opts ...ratelimit.Option) (*Module, error) {
	formValidator, err := validation.New(val, calc.Config())
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(repo, ratelimit.Windows{
		Contact:    cfg.GetContactRateWindow(),
		LeadMagnet: cfg.GetLeadMagnetRateWindow(),
		Quiz:       cfg.GetQuizRateWindow(),
	}, opts...)

	svc := service.New(repo, formValidator, limiter, calc, cfg.GetSubmissionTimeout(), log)
	adminSvc := service.NewAdminService(repo, formValidator, log)

	return &Module{
		public:  handler.NewPublicHandler(svc),
		admin:   handler.NewAdminHandler(adminSvc),
		service: svc,
		log:     log,
	}, nil
}

// SetGuideLinker enables presigned guide links on lead-magnet responses.
func (m *Module) SetGuideLinker(guides service.GuideLinker) {
	m.service.SetGuideLinker(guides)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts the public form routes and, when enabled, the admin routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.public.RegisterRoutes(ctx.Public)

	if ctx.Admin != nil {
		m.admin.RegisterRoutes(ctx.Admin.Group("/leads"))
	}
}
