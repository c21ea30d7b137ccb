package v1

import (
	"github.com/gin-gonic/gin"

	"adminpanel/internal/domain/access"
	"adminpanel/internal/domain/actions"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/menu"
	"adminpanel/internal/domain/pages"
	"adminpanel/internal/domain/permissions"
	"adminpanel/internal/domain/roles"
	"adminpanel/internal/domain/tenants"
	"adminpanel/internal/domain/users"
	"adminpanel/internal/infrastructure/http/v1/handlers"
	"adminpanel/internal/infrastructure/http/v1/middleware"
	"adminpanel/internal/infrastructure/metrics"
	"adminpanel/pkg/logger"
)

// RouterConfig holds the router's dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Metrics records HTTP and login metrics. Optional.
	Metrics *metrics.Metrics

	// DB is pinged by the readiness probe.
	DB handlers.Pinger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Access answers per-request permission checks.
	Access *access.Service

	// TenantResolver validates the request tenant.
	TenantResolver middleware.TenantResolver

	// LoginLimiter throttles login and forgot-password per client. Optional.
	LoginLimiter *middleware.ClientLimiter

	AuthService       handlers.AuthService
	MenuBuilder       *menu.Builder
	UserService       *users.Service
	RoleService       *roles.Service
	PermissionService *permissions.Service
	PageService       *pages.Service
	ActionService     *actions.Service
	TenantService     *tenants.Service
	AuditRecorder     *audit.Recorder

	// Release switches gin to release mode.
	Release bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, base, cfg)

		// Auth runs first so Tenant can read the token's tenant claim.
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		protected.Use(middleware.Tenant(cfg.TenantResolver))

		registerAdminRoutes(protected, base, cfg)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	var logins handlers.LoginCounter
	var rejects middleware.RejectCounter
	if cfg.Metrics != nil {
		logins = cfg.Metrics
		rejects = cfg.Metrics
	}

	var throttled []gin.HandlerFunc
	if cfg.LoginLimiter != nil {
		throttled = append(throttled, middleware.RateLimit(cfg.LoginLimiter, rejects))
	}

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService, logins)

	public := v1.Group("/auth")
	public.Use(middleware.Tenant(cfg.TenantResolver))

	protected := v1.Group("/auth")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	protected.Use(middleware.Tenant(cfg.TenantResolver))

	authHandler.RegisterRoutes(public, protected, throttled...)

	userHandler := handlers.NewUserHandler(base, cfg.UserService)
	protected.POST("/change-password", userHandler.ChangePassword)
}

func registerAdminRoutes(api *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	checker := cfg.Access

	handlers.NewMenuHandler(base, cfg.MenuBuilder, cfg.Access).RegisterRoutes(api.Group("/menu"))

	userHandler := handlers.NewUserHandler(base, cfg.UserService)
	usersGroup := api.Group("/users")
	RegisterCRUDRoutes(usersGroup, userHandler, checker, ModulePermissions("Users"))
	userHandler.RegisterRoutes(usersGroup, checker)

	roleHandler := handlers.NewRoleHandler(base, cfg.RoleService)
	rolesGroup := api.Group("/roles")
	RegisterCRUDRoutes(rolesGroup, roleHandler, checker, ModulePermissions("Roles"))
	roleHandler.RegisterRoutes(rolesGroup, checker)

	handlers.NewPermissionHandler(base, cfg.PermissionService).RegisterRoutes(api.Group("/permissions"), checker)

	pageHandler := handlers.NewPageHandler(base, cfg.PageService)
	pagesGroup := api.Group("/pages")
	RegisterCRUDRoutes(pagesGroup, pageHandler, checker, ModulePermissions("Pages"))
	pageHandler.RegisterRoutes(pagesGroup, checker)

	actionHandler := handlers.NewActionHandler(base, cfg.ActionService)
	actionsGroup := api.Group("/actions")
	RegisterCRUDRoutes(actionsGroup, actionHandler, checker, ModulePermissions("Actions"))
	actionHandler.RegisterRoutes(actionsGroup, checker)

	handlers.NewTenantHandler(base, cfg.TenantService).RegisterRoutes(api.Group("/tenants"), checker)
	handlers.NewAuditHandler(base, cfg.AuditRecorder).RegisterRoutes(api.Group("/audit-logs"), checker)
}
