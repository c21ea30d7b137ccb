package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/domain/pages"
	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/infrastructure/http/v1/dto"
	"adminpanel/internal/infrastructure/http/v1/middleware"
)

// PageHandler handles page administration and page-action assignment.
type PageHandler struct {
	*BaseHandler
	service *pages.Service
}

// NewPageHandler creates a new page handler.
func NewPageHandler(base *BaseHandler, service *pages.Service) *PageHandler {
	return &PageHandler{BaseHandler: base, service: service}
}

// List handles GET /pages
func (h *PageHandler) List(c *gin.Context) {
	var f pages.Filter
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

// Get handles GET /pages/:id
func (h *PageHandler) Get(c *gin.Context) {
	pageID, ok := h.ParamID(c)
	if !ok {
		return
	}

	detail, err := h.service.GetByID(c.Request.Context(), pageID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}

// Create handles POST /pages
func (h *PageHandler) Create(c *gin.Context) {
	var req pages.CreateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	detail, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, detail)
}

// Update handles PUT /pages/:id
func (h *PageHandler) Update(c *gin.Context) {
	pageID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req pages.UpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	page, err := h.service.Update(c.Request.Context(), pageID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, page)
}

// Delete handles DELETE /pages/:id
func (h *PageHandler) Delete(c *gin.Context) {
	pageID, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), pageID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ToggleStatus handles PATCH /pages/:id/toggle-status
func (h *PageHandler) ToggleStatus(c *gin.Context) {
	pageID, ok := h.ParamID(c)
	if !ok {
		return
	}

	active, err := h.service.ToggleStatus(c.Request.Context(), pageID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, active)
}

// Dropdown handles GET /pages/dropdown?excludeId=
// Pages below excludeId are left out so they cannot be picked as its parent.
func (h *PageHandler) Dropdown(c *gin.Context) {
	var excludeID int64
	if raw := c.Query("excludeId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			excludeID = v
		}
	}

	items, err := h.service.GetDropdown(c.Request.Context(), excludeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// MenuTree handles GET /pages/menu, the full menu tree ignoring grants.
func (h *PageHandler) MenuTree(c *gin.Context) {
	items, err := h.service.GetMenuPages(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// CheckURL handles GET /pages/check-url?value=&excludeId=
func (h *PageHandler) CheckURL(c *gin.Context) {
	var q dto.UniqueQuery
	if !h.BindQuery(c, &q) {
		return
	}

	unique, err := h.service.IsURLUnique(c.Request.Context(), q.Value, q.ExcludeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.UniqueResponse{IsUnique: unique})
}

// Actions handles GET /pages/:id/actions. With ?all=true every active action
// is listed with an assignment flag.
func (h *PageHandler) Actions(c *gin.Context) {
	pageID, ok := h.ParamID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if all, _ := strconv.ParseBool(c.Query("all")); all {
		list, err := h.service.GetAllActionsWithAssignment(ctx, pageID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, list)
		return
	}

	list, err := h.service.GetPageActions(ctx, pageID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// AssignActions handles PUT /pages/:id/actions
func (h *PageHandler) AssignActions(c *gin.Context) {
	pageID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.IDsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.AssignActions(c.Request.Context(), pageID, req.IDs); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "actions assigned")
}

// RegisterRoutes registers the non-CRUD page routes.
func (h *PageHandler) RegisterRoutes(group *gin.RouterGroup, checker middleware.PermissionChecker) {
	view := middleware.RequirePermission(checker, rbac.PermPagesView)

	group.GET("/dropdown", view, h.Dropdown)
	group.GET("/menu", view, h.MenuTree)
	group.GET("/check-url", middleware.RequireAnyPermission(checker, rbac.PermPagesCreate, rbac.PermPagesEdit), h.CheckURL)
	group.GET("/:id/actions", view, h.Actions)
	group.PUT("/:id/actions", middleware.RequirePermission(checker, rbac.PermPagesEdit), h.AssignActions)
}
