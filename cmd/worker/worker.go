package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"adminpanel/pkg/logger"
)

// Relay delivers and maintains outbox messages; *postgres.OutboxRelay implements it.
type Relay interface {
	ProcessBatch(ctx context.Context) (int, error)
	MoveToDLQ(ctx context.Context) (int64, error)
	PurgePublished(ctx context.Context, retention time.Duration) (int64, error)
}

// TokenPurger clears expired account tokens; *auth_repo.UserRepo implements it.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Counter is the part of a Prometheus counter the worker uses.
type Counter interface {
	Add(float64)
}

// Schedules holds the cron specs of the maintenance jobs.
type Schedules struct {
	PurgeTokens    string
	MoveToDLQ      string
	PurgePublished string
}

// DefaultSchedules runs token cleanup hourly, DLQ moves every five minutes
// and the published-message purge nightly.
func DefaultSchedules() Schedules {
	return Schedules{
		PurgeTokens:    "@hourly",
		MoveToDLQ:      "@every 5m",
		PurgePublished: "30 3 * * *",
	}
}

// Worker relays queued email and runs periodic cleanups.
type Worker struct {
	relay     Relay
	tokens    TokenPurger
	delivered Counter
	movedDLQ  Counter
	log       *logger.Logger
	retention time.Duration
	now       func() time.Time
}

// NewWorker creates a worker. Published messages are kept for retention.
func NewWorker(relay Relay, tokens TokenPurger, delivered, movedDLQ Counter, log *logger.Logger, retention time.Duration) *Worker {
	return &Worker{
		relay:     relay,
		tokens:    tokens,
		delivered: delivered,
		movedDLQ:  movedDLQ,
		log:       log.WithComponent("worker"),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunOutbox polls the outbox until ctx is done.
func (w *Worker) RunOutbox(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.deliver(ctx)
		}
	}
}

func (w *Worker) deliver(ctx context.Context) {
	n, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	if n > 0 {
		w.delivered.Add(float64(n))
		w.log.Debugw("outbox batch delivered", "count", n)
	}
}

func (w *Worker) purgeTokens(ctx context.Context) {
	n, err := w.tokens.PurgeExpiredTokens(ctx, w.now())
	if err != nil {
		w.log.Errorw("token cleanup failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleared expired tokens", "count", n)
	}
}

func (w *Worker) moveFailed(ctx context.Context) {
	n, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("outbox DLQ move failed", "error", err)
		return
	}
	if n > 0 {
		w.movedDLQ.Add(float64(n))
		w.log.Warnw("moved undeliverable messages to DLQ", "count", n)
	}
}

func (w *Worker) purgePublished(ctx context.Context) {
	n, err := w.relay.PurgePublished(ctx, w.retention)
	if err != nil {
		w.log.Errorw("outbox purge failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("purged published messages", "count", n)
	}
}

// Schedule registers the maintenance jobs on c. Jobs run with ctx.
func (w *Worker) Schedule(ctx context.Context, c *cron.Cron, s Schedules) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context)
	}{
		{"purge tokens", s.PurgeTokens, w.purgeTokens},
		{"move to DLQ", s.MoveToDLQ, w.moveFailed},
		{"purge published", s.PurgePublished, w.purgePublished},
	}

	for _, job := range jobs {
		run := job.run
		if _, err := c.AddFunc(job.spec, func() { run(ctx) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.name, job.spec, err)
		}
		w.log.Infow("job scheduled", "job", job.name, "schedule", job.spec)
	}
	return nil
}
