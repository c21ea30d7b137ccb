// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"adminpanel/internal/infrastructure/http/v1/middleware"
)

// CRUDRouteHandler defines the methods every administrative resource handler
// exposes.
type CRUDRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	ToggleStatus(c *gin.Context)
}

// CRUDPermissions names the permission code required for each route class.
type CRUDPermissions struct {
	View   string
	Create string
	Edit   string
	Delete string
}

// ModulePermissions derives the standard codes of a permission module,
// e.g. "Roles" gives Roles.View, Roles.Create, Roles.Edit and Roles.Delete.
func ModulePermissions(module string) CRUDPermissions {
	return CRUDPermissions{
		View:   module + ".View",
		Create: module + ".Create",
		Edit:   module + ".Edit",
		Delete: module + ".Delete",
	}
}

// RegisterCRUDRoutes registers the standard routes of a resource.
//
// Usage:
//
//	handler := handlers.NewRoleHandler(baseHandler, rolesService)
//	RegisterCRUDRoutes(api.Group("/roles"), handler, checker, ModulePermissions("Roles"))
func RegisterCRUDRoutes(group *gin.RouterGroup, handler CRUDRouteHandler, checker middleware.PermissionChecker, perms CRUDPermissions) {
	group.GET("", middleware.RequirePermission(checker, perms.View), handler.List)
	group.GET("/:id", middleware.RequirePermission(checker, perms.View), handler.Get)
	group.POST("", middleware.RequirePermission(checker, perms.Create), handler.Create)
	group.PUT("/:id", middleware.RequirePermission(checker, perms.Edit), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(checker, perms.Delete), handler.Delete)
	group.PATCH("/:id/toggle-status", middleware.RequirePermission(checker, perms.Edit), handler.ToggleStatus)
}
