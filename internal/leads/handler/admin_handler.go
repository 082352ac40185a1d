package handler

import (
	"relocation_quiz_backend/internal/leads/service"
	"relocation_quiz_backend/internal/leads/transport"
	"relocation_quiz_backend/platform/apperr"
	"relocation_quiz_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidLeadID = "Invalid lead id"
	msgInvalidQuery  = "Invalid query parameters"
)

// AdminHandler serves the lead review API.
type AdminHandler struct {
	svc *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
}

func (h *AdminHandler) List(c *gin.Context) {
	var q transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidQuery))
		return
	}

	resp, err := h.svc.List(c.Request.Context(), q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *AdminHandler) Update(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), id, identity.Subject(), &req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidLeadID))
		return uuid.UUID{}, false
	}
	return id, true
}
