// Package main provides CLI for tenant management.
// Usage: tenant create --name "ACME Corp" [--domain acme.example.com] [--until 2026-12-31]
//        tenant list
//        tenant activate <tenant-id>
//        tenant deactivate <tenant-id>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/tenants"
	"adminpanel/internal/infrastructure/storage/postgres"
	"adminpanel/internal/infrastructure/storage/postgres/tenant_repo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "help", "--help", "-h":
		printUsage()
		return
	}

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("Error: DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	store, err := postgres.NewAuditStore(txManager)
	if err != nil {
		fmt.Printf("Error creating audit store: %v\n", err)
		os.Exit(1)
	}
	svc := tenants.NewService(tenant_repo.NewTenantRepo(txManager), txManager, audit.NewRecorder(store, nil))

	if err := run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		fmt.Printf("Error: %v\n", err)
		var usage usageError
		if errors.As(err, &usage) {
			printUsage()
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Tenant Management CLI

Usage:
  tenant <command> [options]

Commands:
  create      Create a new tenant
  list        List all tenants
  activate    Activate a tenant
  deactivate  Deactivate a tenant
  help        Show this help

Environment Variables:
  DATABASE_URL   Connection string (required)

Examples:
  tenant create --name "ACME Corporation" --domain acme.example.com
  tenant create --name Globex --until 2026-12-31
  tenant list
  tenant deactivate 3
  tenant activate 3`)
}
