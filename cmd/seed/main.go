// Package main applies the schema and seeds baseline RBAC data: the default
// tenant, system roles, the permission and page catalog, and the admin user.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"adminpanel/internal/core/security"
	"adminpanel/internal/infrastructure/storage/postgres"
	"adminpanel/internal/infrastructure/storage/postgres/migrations"
	"adminpanel/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	catalog, err := loadCatalog(os.Getenv("SEED_CATALOG"))
	if err != nil {
		log.Fatalw("failed to load catalog", "error", err)
	}
	applyAdminOverrides(&catalog.Admin)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if getEnv("SEED_SKIP_MIGRATIONS", "false") != "true" {
		if err := migrations.Apply(ctx, pool); err != nil {
			log.Fatalw("failed to apply schema", "error", err)
		}
		log.Info("schema applied")
	}

	seeder := NewSeeder(postgres.NewTxManager(pool), security.NewPasswordHasher(), log)
	res, err := seeder.Run(ctx, catalog)
	if err != nil {
		log.Fatalw("failed to seed", "error", err)
	}

	log.Infow("seeding completed successfully", "result", res.String())
}

// loadCatalog reads path when set and falls back to the embedded catalog.
func loadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		data = b
	}
	return LoadCatalog(data)
}

func applyAdminOverrides(a *AdminSeed) {
	a.Username = getEnv("ADMIN_USERNAME", a.Username)
	a.Email = getEnv("ADMIN_EMAIL", a.Email)
	a.Password = getEnv("ADMIN_PASSWORD", a.Password)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
