package handlers

import (
	"github.com/gin-gonic/gin"

	"adminpanel/internal/domain/permissions"
	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/infrastructure/http/v1/middleware"
)

// PermissionHandler exposes the permission catalog. Permissions are seeded;
// only their display fields can be edited.
type PermissionHandler struct {
	*BaseHandler
	service *permissions.Service
}

// NewPermissionHandler creates a new permission handler.
func NewPermissionHandler(base *BaseHandler, service *permissions.Service) *PermissionHandler {
	return &PermissionHandler{BaseHandler: base, service: service}
}

// List handles GET /permissions
func (h *PermissionHandler) List(c *gin.Context) {
	list, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// Grouped handles GET /permissions/grouped
func (h *PermissionHandler) Grouped(c *gin.Context) {
	groups, err := h.service.GetGrouped(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, groups)
}

// Get handles GET /permissions/:id
func (h *PermissionHandler) Get(c *gin.Context) {
	permissionID, ok := h.ParamID(c)
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), permissionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update handles PUT /permissions/:id
func (h *PermissionHandler) Update(c *gin.Context) {
	permissionID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req permissions.UpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), permissionID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// ForRole handles GET /permissions/role/:id
func (h *PermissionHandler) ForRole(c *gin.Context) {
	roleID, ok := h.ParamID(c)
	if !ok {
		return
	}

	list, err := h.service.GetPermissionsForRole(c.Request.Context(), roleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// Mine handles GET /permissions/me, the caller's effective codes.
func (h *PermissionHandler) Mine(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	codes, err := h.service.GetUserPermissions(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, codes)
}

// RegisterRoutes registers permission routes.
func (h *PermissionHandler) RegisterRoutes(group *gin.RouterGroup, checker middleware.PermissionChecker) {
	view := middleware.RequirePermission(checker, rbac.PermRolesView)

	group.GET("/me", h.Mine)
	group.GET("", view, h.List)
	group.GET("/grouped", view, h.Grouped)
	group.GET("/role/:id", view, h.ForRole)
	group.GET("/:id", view, h.Get)
	group.PUT("/:id", middleware.RequirePermission(checker, rbac.PermRolesManagePermissions), h.Update)
}
