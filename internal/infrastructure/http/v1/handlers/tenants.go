package handlers

import (
	"github.com/gin-gonic/gin"

	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/domain/tenants"
	"adminpanel/internal/infrastructure/http/v1/middleware"
)

// TenantHandler handles tenant administration.
type TenantHandler struct {
	*BaseHandler
	service *tenants.Service
}

// NewTenantHandler creates a new tenant handler.
func NewTenantHandler(base *BaseHandler, service *tenants.Service) *TenantHandler {
	return &TenantHandler{BaseHandler: base, service: service}
}

// List handles GET /tenants
func (h *TenantHandler) List(c *gin.Context) {
	list, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// Get handles GET /tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	tenantID, ok := h.ParamID(c)
	if !ok {
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Create handles POST /tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req tenants.Request
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, t)
}

// Update handles PUT /tenants/:id
func (h *TenantHandler) Update(c *gin.Context) {
	tenantID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req tenants.Request
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Update(c.Request.Context(), tenantID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// ToggleStatus handles PATCH /tenants/:id/toggle-status
func (h *TenantHandler) ToggleStatus(c *gin.Context) {
	tenantID, ok := h.ParamID(c)
	if !ok {
		return
	}

	active, err := h.service.ToggleStatus(c.Request.Context(), tenantID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, active)
}

func (h *TenantHandler) setActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := h.ParamID(c)
		if !ok {
			return
		}

		if err := h.service.SetActive(c.Request.Context(), tenantID, active); err != nil {
			h.Error(c, err)
			return
		}
		h.Status(c, active)
	}
}

// RegisterRoutes registers tenant routes. Tenants are deactivated, never deleted.
func (h *TenantHandler) RegisterRoutes(group *gin.RouterGroup, checker middleware.PermissionChecker) {
	view := middleware.RequirePermission(checker, rbac.PermTenantsView)
	edit := middleware.RequirePermission(checker, rbac.PermTenantsEdit)

	group.GET("", view, h.List)
	group.GET("/:id", view, h.Get)
	group.POST("", middleware.RequirePermission(checker, rbac.PermTenantsCreate), h.Create)
	group.PUT("/:id", edit, h.Update)
	group.PATCH("/:id/toggle-status", edit, h.ToggleStatus)
	group.POST("/:id/activate", edit, h.setActive(true))
	group.POST("/:id/deactivate", edit, h.setActive(false))
}
