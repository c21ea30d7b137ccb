package handlers

import (
	"github.com/gin-gonic/gin"

	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/rbac"
	"adminpanel/internal/infrastructure/http/v1/dto"
	"adminpanel/internal/infrastructure/http/v1/middleware"
)

// AuditHandler exposes the audit log for reading.
type AuditHandler struct {
	*BaseHandler
	recorder *audit.Recorder
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{BaseHandler: base, recorder: recorder}
}

// List handles GET /audit-logs
func (h *AuditHandler) List(c *gin.Context) {
	var q dto.AuditQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.recorder.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /audit-logs/:id
func (h *AuditHandler) Get(c *gin.Context) {
	entryID, ok := h.ParamID(c)
	if !ok {
		return
	}

	entry, err := h.recorder.GetByID(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entry)
}

// RegisterRoutes registers audit routes.
func (h *AuditHandler) RegisterRoutes(group *gin.RouterGroup, checker middleware.PermissionChecker) {
	view := middleware.RequirePermission(checker, rbac.PermAuditLogsView)
	group.GET("", view, h.List)
	group.GET("/:id", view, h.Get)
}
