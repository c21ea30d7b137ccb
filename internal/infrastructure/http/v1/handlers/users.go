package handlers

import (
	"github.com/gin-gonic/gin"

	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/domain/users"
	"adminpanel/internal/infrastructure/http/v1/dto"
	"adminpanel/internal/infrastructure/http/v1/middleware"
)

// UserHandler handles user administration.
type UserHandler struct {
	*BaseHandler
	service *users.Service
}

// NewUserHandler creates a new user handler.
func NewUserHandler(base *BaseHandler, service *users.Service) *UserHandler {
	return &UserHandler{BaseHandler: base, service: service}
}

// List handles GET /users
func (h *UserHandler) List(c *gin.Context) {
	var f users.Filter
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

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := h.ParamID(c)
	if !ok {
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, user)
}

// Create handles POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req users.CreateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, user)
}

// Update handles PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req users.UpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Update(c.Request.Context(), userID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, user)
}

// Delete handles DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	userID, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ToggleStatus handles PATCH /users/:id/toggle-status
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	userID, ok := h.ParamID(c)
	if !ok {
		return
	}

	active, err := h.service.ToggleStatus(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, active)
}

// AssignRoles handles PUT /users/:id/roles
func (h *UserHandler) AssignRoles(c *gin.Context) {
	userID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.IDsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.AssignRoles(c.Request.Context(), userID, req.IDs); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "roles assigned")
}

// Permissions handles GET /users/:id/permissions
func (h *UserHandler) Permissions(c *gin.Context) {
	userID, ok := h.ParamID(c)
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

// ResetPassword handles POST /users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	userID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.AdminResetPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), userID, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "password has been reset")
}

// ChangePassword handles POST /auth/change-password for the caller.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.ToUsersRequest()); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "password changed")
}

// RegisterRoutes registers the non-CRUD user routes.
func (h *UserHandler) RegisterRoutes(group *gin.RouterGroup, checker middleware.PermissionChecker) {
	group.PUT("/:id/roles", middleware.RequirePermission(checker, rbac.PermUsersManageRoles), h.AssignRoles)
	group.GET("/:id/permissions", middleware.RequirePermission(checker, rbac.PermUsersView), h.Permissions)
	group.POST("/:id/reset-password", middleware.RequirePermission(checker, rbac.PermUsersResetPassword), h.ResetPassword)
}
