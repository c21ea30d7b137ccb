package handlers

import (
	"github.com/gin-gonic/gin"

	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/domain/roles"
	"adminpanel/internal/infrastructure/http/v1/dto"
	"adminpanel/internal/infrastructure/http/v1/middleware"
)

// RoleHandler handles role administration and role grants.
type RoleHandler struct {
	*BaseHandler
	service *roles.Service
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(base *BaseHandler, service *roles.Service) *RoleHandler {
	return &RoleHandler{BaseHandler: base, service: service}
}

// List handles GET /roles
func (h *RoleHandler) List(c *gin.Context) {
	var f roles.Filter
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

// All handles GET /roles/all, the unpaged list used by dropdowns.
func (h *RoleHandler) All(c *gin.Context) {
	list, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// Get handles GET /roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	roleID, ok := h.ParamID(c)
	if !ok {
		return
	}

	role, err := h.service.GetByID(c.Request.Context(), roleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, role)
}

// Create handles POST /roles
func (h *RoleHandler) Create(c *gin.Context) {
	var req roles.CreateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	role, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, role)
}

// Update handles PUT /roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	roleID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req roles.UpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	role, err := h.service.Update(c.Request.Context(), roleID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, role)
}

// Delete handles DELETE /roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	roleID, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), roleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ToggleStatus handles PATCH /roles/:id/toggle-status
func (h *RoleHandler) ToggleStatus(c *gin.Context) {
	roleID, ok := h.ParamID(c)
	if !ok {
		return
	}

	active, err := h.service.ToggleStatus(c.Request.Context(), roleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, active)
}

// CheckName handles GET /roles/check-name?value=&excludeId=
func (h *RoleHandler) CheckName(c *gin.Context) {
	var q dto.UniqueQuery
	if !h.BindQuery(c, &q) {
		return
	}

	unique, err := h.service.IsNameUnique(c.Request.Context(), q.Value, q.ExcludeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.UniqueResponse{IsUnique: unique})
}

// Permissions handles GET /roles/:id/permissions
func (h *RoleHandler) Permissions(c *gin.Context) {
	roleID, ok := h.ParamID(c)
	if !ok {
		return
	}

	list, err := h.service.GetRolePermissions(c.Request.Context(), roleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// AssignPermissions handles PUT /roles/:id/permissions
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	roleID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.IDsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.AssignPermissions(c.Request.Context(), roleID, req.IDs); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "permissions assigned")
}

// PageActions handles GET /roles/:id/page-actions
func (h *RoleHandler) PageActions(c *gin.Context) {
	roleID, ok := h.ParamID(c)
	if !ok {
		return
	}

	list, err := h.service.GetRolePageActions(c.Request.Context(), roleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// AssignPageActions handles PUT /roles/:id/page-actions
func (h *RoleHandler) AssignPageActions(c *gin.Context) {
	roleID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.IDsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.AssignPageActions(c.Request.Context(), roleID, req.IDs); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "page actions assigned")
}

// RegisterRoutes registers the non-CRUD role routes.
func (h *RoleHandler) RegisterRoutes(group *gin.RouterGroup, checker middleware.PermissionChecker) {
	view := middleware.RequirePermission(checker, rbac.PermRolesView)
	manage := middleware.RequirePermission(checker, rbac.PermRolesManagePermissions)

	group.GET("/all", view, h.All)
	group.GET("/check-name", middleware.RequireAnyPermission(checker, rbac.PermRolesCreate, rbac.PermRolesEdit), h.CheckName)
	group.GET("/:id/permissions", view, h.Permissions)
	group.PUT("/:id/permissions", manage, h.AssignPermissions)
	group.GET("/:id/page-actions", view, h.PageActions)
	group.PUT("/:id/page-actions", manage, h.AssignPageActions)
}
