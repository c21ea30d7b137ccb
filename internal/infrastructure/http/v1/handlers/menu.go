package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/domain/access"
	"adminpanel/internal/domain/menu"
)

// MenuBuilder builds the navigation tree of a user.
type MenuBuilder interface {
	BuildUserMenu(ctx context.Context, userID int64) ([]*menu.MenuItem, error)
}

// PageActionResolver lists the page actions granted to a user.
type PageActionResolver interface {
	ResolveGrantedPageActions(ctx context.Context, userID int64) ([]access.PageActionKey, error)
}

// MenuHandler serves the caller's menu and page-action grants.
type MenuHandler struct {
	*BaseHandler
	builder MenuBuilder
	grants  PageActionResolver
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(base *BaseHandler, builder MenuBuilder, grants PageActionResolver) *MenuHandler {
	return &MenuHandler{BaseHandler: base, builder: builder, grants: grants}
}

// Menu handles GET /menu
func (h *MenuHandler) Menu(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	items, err := h.builder.BuildUserMenu(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// PageActions handles GET /menu/page-actions
func (h *MenuHandler) PageActions(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	keys, err := h.grants.ResolveGrantedPageActions(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, keys)
}

// RegisterRoutes registers menu routes. Only authentication is required.
func (h *MenuHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.Menu)
	group.GET("/page-actions", h.PageActions)
}
