// Package main is the entry point for the background worker: it relays
// queued account emails over SMTP and runs periodic cleanups.
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

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"adminpanel/internal/infrastructure/mail"
	"adminpanel/internal/infrastructure/metrics"
	"adminpanel/internal/infrastructure/storage/postgres"
	"adminpanel/internal/infrastructure/storage/postgres/auth_repo"
	"adminpanel/pkg/logger"
)

func main() {
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

	log.Info("starting adminpanel worker")

	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	poolCfg.MaxConns = 5
	poolCfg.ApplicationName = "adminpanel-worker"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	renderer, err := mail.NewRenderer()
	if err != nil {
		log.Fatalw("failed to load mail templates", "error", err)
	}
	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:       mustEnv("SMTP_HOST"),
		Port:       getEnvInt("SMTP_PORT", 587),
		Username:   getEnv("SMTP_USERNAME", ""),
		Password:   getEnv("SMTP_PASSWORD", ""),
		FromEmail:  mustEnv("SMTP_FROM_EMAIL"),
		FromName:   getEnv("SMTP_FROM_NAME", "Admin Panel"),
		SkipVerify: getEnv("SMTP_SKIP_VERIFY", "false") == "true",
	})

	m := metrics.New()
	m.RegisterPool(pool)

	relay := postgres.NewOutboxRelay(txManager, mail.NewRelayHandler(renderer, sender), getEnvInt("OUTBOX_BATCH_SIZE", 50))
	worker := NewWorker(relay, auth_repo.NewUserRepo(txManager), m.OutboxDelivered, m.OutboxMovedDLQ, log,
		getEnvDuration("OUTBOX_RETENTION", 7*24*time.Hour))

	schedules := DefaultSchedules()
	schedules.PurgeTokens = getEnv("CRON_PURGE_TOKENS", schedules.PurgeTokens)
	schedules.MoveToDLQ = getEnv("CRON_MOVE_DLQ", schedules.MoveToDLQ)
	schedules.PurgePublished = getEnv("CRON_PURGE_OUTBOX", schedules.PurgePublished)

	c := cron.New()
	if err := worker.Schedule(ctx, c, schedules); err != nil {
		log.Fatalw("failed to schedule jobs", "error", err)
	}
	c.Start()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + getEnv("METRICS_PORT", "9091"),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.RunOutbox(gctx, getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second))
	})
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down worker...")

		// Wait for running jobs before the pool closes.
		<-c.Stop().Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorw("worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
