package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"adminpanel/internal/core/id"
	"adminpanel/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// DefaultMaxRetries is how many failed deliveries a message gets before it is
// parked as failed.
const DefaultMaxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.EventID   `db:"id"`
	AggregateType string       `db:"aggregate_type"` // e.g. "User"
	AggregateID   string       `db:"aggregate_id"`
	EventType     string       `db:"event_type"` // e.g. "mail.password_reset"
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

var outboxColumns = ExtractDBColumns[OutboxMessage]()

// DomainEvent represents an event to be published via outbox.
type DomainEvent struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       any
}

// OutboxPublisher writes events to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
	now       func() time.Time
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager, now: time.Now}
}

// PublishQuery builds the insert for a batch of events.
func PublishQuery(now time.Time, events ...DomainEvent) (squirrel.InsertBuilder, error) {
	q := Builder().Insert("sys_outbox").
		Columns("id", "aggregate_type", "aggregate_id", "event_type", "payload", "status", "created_at")
	for _, event := range events {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			return q, fmt.Errorf("marshal %s payload: %w", event.EventType, err)
		}
		q = q.Values(id.NewEvent(), event.AggregateType, event.AggregateID, event.EventType, payload, OutboxStatusPending, now)
	}
	return q, nil
}

// Publish writes events to the outbox. Inside a transaction they become
// visible to the relay only on commit; outside one each call commits alone.
func (p *OutboxPublisher) Publish(ctx context.Context, events ...DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	q, err := PublishQuery(p.now().UTC(), events...)
	if err != nil {
		return err
	}
	_, err = Exec(ctx, p.txManager, q, "outbox message")
	return err
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	// Handle processes a message and returns error if failed
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxRelay reads pending messages and hands them to a handler.
type OutboxRelay struct {
	txManager  *TxManager
	handler    OutboxHandler
	batchSize  uint64
	maxRetries int
	now        func() time.Time
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, handler OutboxHandler, batchSize int) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &OutboxRelay{
		txManager:  txManager,
		handler:    handler,
		batchSize:  uint64(batchSize),
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
}

// PendingQuery selects due messages, skipping rows locked by another relay.
func PendingQuery(now time.Time, limit uint64) squirrel.SelectBuilder {
	return Builder().Select(outboxColumns...).From("sys_outbox").
		Where(squirrel.Eq{"status": OutboxStatusPending}).
		Where(squirrel.Or{
			squirrel.Eq{"next_retry_at": nil},
			squirrel.LtOrEq{"next_retry_at": now},
		}).
		OrderBy("created_at").
		Limit(limit).
		Suffix("FOR UPDATE SKIP LOCKED")
}

// ProcessBatch delivers one batch of due messages and reports how many
// succeeded. The batch is locked for the duration of the transaction.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		now := r.now().UTC()
		messages, err := Select[OutboxMessage](ctx, r.txManager, PendingQuery(now, r.batchSize), "outbox message")
		if err != nil {
			return err
		}
		for i := range messages {
			msg := &messages[i]
			if err := r.processMessage(ctx, msg, now); err != nil {
				logger.Warn(ctx, "outbox delivery failed",
					"message_id", msg.ID, "event_type", msg.EventType,
					"retry_count", msg.RetryCount+1, "error", err)
				continue
			}
			processed++
		}
		return nil
	})
	return processed, err
}

// FailureUpdate records a failed delivery with linear backoff.
func (r *OutboxRelay) FailureUpdate(msg *OutboxMessage, cause error, now time.Time) squirrel.UpdateBuilder {
	attempts := msg.RetryCount + 1
	status := OutboxStatusPending
	if attempts >= r.maxRetries {
		status = OutboxStatusFailed
	}
	return Builder().Update("sys_outbox").
		Set("retry_count", attempts).
		Set("last_error", cause.Error()).
		Set("next_retry_at", now.Add(time.Duration(attempts)*time.Minute)).
		Set("status", status).
		Where(squirrel.Eq{"id": msg.ID})
}

func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage, now time.Time) error {
	if err := r.handler.Handle(ctx, msg); err != nil {
		if _, updateErr := Exec(ctx, r.txManager, r.FailureUpdate(msg, err, now), "outbox message"); updateErr != nil {
			return fmt.Errorf("record failure: %w", updateErr)
		}
		return err
	}

	q := Builder().Update("sys_outbox").
		Set("status", OutboxStatusPublished).
		Set("published_at", now).
		Where(squirrel.Eq{"id": msg.ID})
	_, err := Exec(ctx, r.txManager, q, "outbox message")
	return err
}

const moveToDLQSQL = `
	WITH moved AS (
		DELETE FROM sys_outbox
		WHERE status = $1
		RETURNING *
	)
	INSERT INTO sys_outbox_dlq
	SELECT *, NOW() AS failed_at, last_error AS failure_reason FROM moved`

// MoveToDLQ moves failed messages to the dead letter queue.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, moveToDLQSQL, OutboxStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgePublished deletes delivered messages older than retention.
func (r *OutboxRelay) PurgePublished(ctx context.Context, retention time.Duration) (int64, error) {
	q := Builder().Delete("sys_outbox").
		Where(squirrel.Eq{"status": OutboxStatusPublished}).
		Where(squirrel.Lt{"published_at": r.now().UTC().Add(-retention)})
	return Exec(ctx, r.txManager, q, "outbox message")
}
