// Package main is the entry point for the admin API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"adminpanel/internal/core/security"
	"adminpanel/internal/domain/access"
	"adminpanel/internal/domain/actions"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/auth"
	"adminpanel/internal/domain/menu"
	"adminpanel/internal/domain/pages"
	"adminpanel/internal/domain/permissions"
	"adminpanel/internal/domain/roles"
	"adminpanel/internal/domain/tenants"
	"adminpanel/internal/domain/users"
	v1 "adminpanel/internal/infrastructure/http/v1"
	"adminpanel/internal/infrastructure/http/v1/middleware"
	"adminpanel/internal/infrastructure/mail"
	"adminpanel/internal/infrastructure/metrics"
	"adminpanel/internal/infrastructure/storage/postgres"
	"adminpanel/internal/infrastructure/storage/postgres/auth_repo"
	"adminpanel/internal/infrastructure/storage/postgres/rbac_repo"
	"adminpanel/internal/infrastructure/storage/postgres/tenant_repo"
	"adminpanel/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting adminpanel server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 20); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Metrics ---
	m := metrics.New()
	m.RegisterPool(pool)

	// --- Repositories ---
	userRepo := auth_repo.NewUserRepo(txManager)
	accessRepo := auth_repo.NewAccessRepo(txManager)
	roleRepo := rbac_repo.NewRoleRepo(txManager)
	permissionRepo := rbac_repo.NewPermissionRepo(txManager)
	pageRepo := rbac_repo.NewPageRepo(txManager)
	actionRepo := rbac_repo.NewActionRepo(txManager)
	tenantRepo := tenant_repo.NewTenantRepo(txManager)

	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to create audit store", "error", err)
	}

	// --- Core services ---
	accessService := access.NewService(accessRepo)
	recorder := audit.NewRecorder(auditStore, m.AuditWriteFailures)
	hasher := security.NewPasswordHasher()

	jwtConfig := auth.DefaultJWTConfig(mustEnv("JWT_SECRET"))
	jwtConfig.Issuer = getEnv("JWT_ISSUER", jwtConfig.Issuer)
	jwtConfig.Audience = getEnv("JWT_AUDIENCE", jwtConfig.Audience)
	jwtConfig.AccessTokenTTL = getEnvDuration("JWT_ACCESS_TTL", jwtConfig.AccessTokenTTL)
	jwtService := auth.NewJWTService(jwtConfig)

	authConfig := auth.DefaultServiceConfig()
	authConfig.MaxLoginAttempts = getEnvInt("AUTH_MAX_LOGIN_ATTEMPTS", authConfig.MaxLoginAttempts)
	authConfig.LockoutDuration = getEnvDuration("AUTH_LOCKOUT_DURATION", authConfig.LockoutDuration)
	authConfig.RefreshTokenTTL = getEnvDuration("JWT_REFRESH_TTL", authConfig.RefreshTokenTTL)
	authConfig.ResetTokenTTL = getEnvDuration("AUTH_RESET_TOKEN_TTL", authConfig.ResetTokenTTL)
	authConfig.DefaultTenantID = getEnvInt64("DEFAULT_TENANT_ID", authConfig.DefaultTenantID)
	authConfig.DefaultRoleID = getEnvInt64("DEFAULT_ROLE_ID", authConfig.DefaultRoleID)

	mailer := mail.NewOutboxMailer(postgres.NewOutboxPublisher(txManager), mail.LinkConfig{
		BaseURL:       getEnv("APP_BASE_URL", "http://localhost:3000"),
		ResetTokenTTL: authConfig.ResetTokenTTL,
	})

	authService := auth.NewService(
		userRepo,
		accessService,
		hasher,
		jwtService,
		mailer,
		recorder,
		txManager,
		authConfig,
	)

	// --- Administrative services ---
	userService := users.NewService(userRepo, accessService, hasher, txManager, recorder, users.Config{
		DefaultTenantID: authConfig.DefaultTenantID,
		DefaultRoleID:   authConfig.DefaultRoleID,
	})
	roleService := roles.NewService(roleRepo, txManager, recorder)
	permissionService := permissions.NewService(permissionRepo, roleRepo, accessService, txManager, recorder)
	pageService := pages.NewService(pageRepo, txManager, recorder)
	actionService := actions.NewService(actionRepo, txManager, recorder)
	tenantService := tenants.NewService(tenantRepo, txManager, recorder)

	loginLimiter := middleware.NewClientLimiter(middleware.RateLimitConfig{
		PerSecond: getEnvFloat("LOGIN_RATE_PER_SEC", 0.2),
		Burst:     getEnvInt("LOGIN_RATE_BURST", 5),
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:            log,
		Metrics:           m,
		DB:                pool,
		JWTValidator:      jwtService,
		Access:            accessService,
		TenantResolver:    tenantService,
		LoginLimiter:      loginLimiter,
		AuthService:       authService,
		MenuBuilder:       menu.NewBuilder(accessService, pageRepo),
		UserService:       userService,
		RoleService:       roleService,
		PermissionService: permissionService,
		PageService:       pageService,
		ActionService:     actionService,
		TenantService:     tenantService,
		AuditRecorder:     recorder,
		Release:           getEnv("APP_ENV", "development") != "development",
	})

	// --- HTTP Servers ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + getEnv("METRICS_PORT", "9090"),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infow("server starting", "port", port)
		return listen(server)
	})

	g.Go(func() error {
		log.Infow("metrics server starting", "addr", metricsServer.Addr)
		return listen(metricsServer)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				loginLimiter.Sweep()
			}
		}
	})

	// --- Graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return errors.Join(server.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		log.Errorw("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func listen(s *http.Server) error {
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseInt(value, 10, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
