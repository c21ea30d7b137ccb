package handlers

import (
	"github.com/gin-gonic/gin"

	"adminpanel/internal/domain/actions"
	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/infrastructure/http/v1/dto"
	"adminpanel/internal/infrastructure/http/v1/middleware"
)

// ActionHandler handles the action catalog.
type ActionHandler struct {
	*BaseHandler
	service *actions.Service
}

// NewActionHandler creates a new action handler.
func NewActionHandler(base *BaseHandler, service *actions.Service) *ActionHandler {
	return &ActionHandler{BaseHandler: base, service: service}
}

// List handles GET /actions
func (h *ActionHandler) List(c *gin.Context) {
	var f actions.Filter
	if !h.BindQuery(c, &f) {
		return
	}

	result, err := h.service.GetPaged(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// All handles GET /actions/all
func (h *ActionHandler) All(c *gin.Context) {
	list, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// Get handles GET /actions/:id
func (h *ActionHandler) Get(c *gin.Context) {
	actionID, ok := h.ParamID(c)
	if !ok {
		return
	}

	action, err := h.service.GetByID(c.Request.Context(), actionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, action)
}

// Create handles POST /actions
func (h *ActionHandler) Create(c *gin.Context) {
	var req actions.Request
	if !h.BindJSON(c, &req) {
		return
	}

	action, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, action)
}

// Update handles PUT /actions/:id
func (h *ActionHandler) Update(c *gin.Context) {
	actionID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req actions.Request
	if !h.BindJSON(c, &req) {
		return
	}

	action, err := h.service.Update(c.Request.Context(), actionID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, action)
}

// Delete handles DELETE /actions/:id
func (h *ActionHandler) Delete(c *gin.Context) {
	actionID, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actionID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ToggleStatus handles PATCH /actions/:id/toggle-status
func (h *ActionHandler) ToggleStatus(c *gin.Context) {
	actionID, ok := h.ParamID(c)
	if !ok {
		return
	}

	active, err := h.service.ToggleStatus(c.Request.Context(), actionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, active)
}

// CheckCode handles GET /actions/check-code?value=&excludeId=
func (h *ActionHandler) CheckCode(c *gin.Context) {
	var q dto.UniqueQuery
	if !h.BindQuery(c, &q) {
		return
	}

	unique, err := h.service.IsCodeUnique(c.Request.Context(), q.Value, q.ExcludeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.UniqueResponse{IsUnique: unique})
}

// RegisterRoutes registers the non-CRUD action routes.
func (h *ActionHandler) RegisterRoutes(group *gin.RouterGroup, checker middleware.PermissionChecker) {
	group.GET("/all", middleware.RequirePermission(checker, rbac.PermActionsView), h.All)
	group.GET("/check-code", middleware.RequireAnyPermission(checker, rbac.PermActionsCreate, rbac.PermActionsEdit), h.CheckCode)
}
