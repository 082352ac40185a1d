package handler

import (
	"net/http"

	"relocation_quiz_backend/internal/leads/service"
	"relocation_quiz_backend/internal/leads/transport"
	"relocation_quiz_backend/platform/apperr"
	"relocation_quiz_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const msgInvalidRequest = "Invalid request body"

// PublicHandler serves the unauthenticated website forms.
type PublicHandler struct {
	svc *service.Service
}

func NewPublicHandler(svc *service.Service) *PublicHandler {
	return &PublicHandler{svc: svc}
}

// RegisterRoutes mounts the form endpoints. Each also answers OPTIONS so
// preflights succeed even when the CORS middleware lets them through.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/contact", h.Contact)
	rg.OPTIONS("/contact", Preflight)

	rg.POST("/lead-magnet", h.LeadMagnet)
	rg.OPTIONS("/lead-magnet", Preflight)

	rg.POST("/quiz/submit", h.Quiz)
	rg.OPTIONS("/quiz/submit", Preflight)

	rg.POST("/quiz/sessions", h.StartSession)
	rg.OPTIONS("/quiz/sessions", Preflight)

	rg.POST("/quiz/sessions/:sessionId/answers", h.SaveAnswer)
	rg.OPTIONS("/quiz/sessions/:sessionId/answers", Preflight)
}

// Preflight answers an OPTIONS request with 204 and no body.
func Preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *PublicHandler) Contact(c *gin.Context) {
	var req transport.ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.SubmitContact(c.Request.Context(), &req, meta(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *PublicHandler) LeadMagnet(c *gin.Context) {
	var req transport.LeadMagnetRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.SubmitLeadMagnet(c.Request.Context(), &req, meta(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *PublicHandler) Quiz(c *gin.Context) {
	var req transport.QuizSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.SubmitQuiz(c.Request.Context(), &req, meta(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *PublicHandler) StartSession(c *gin.Context) {
	var req transport.CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.svc.StartSession(c.Request.Context(), &req)
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, transport.SessionResponse{Success: true, SessionID: req.SessionID})
}

func (h *PublicHandler) SaveAnswer(c *gin.Context) {
	var req transport.SaveAnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.svc.SaveAnswer(c.Request.Context(), c.Param("sessionId"), &req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SubmissionResponse{Success: true})
}

// bindJSON decodes the body without running gin's own validation; the
// service validates with the registered form rules.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return false
	}
	return true
}

func meta(c *gin.Context) service.Meta {
	return service.Meta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
