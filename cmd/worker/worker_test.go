package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/pkg/logger"
)

type fakeRelay struct {
	batch     int
	batchErr  error
	moved     int64
	retention time.Duration
}

func (f *fakeRelay) ProcessBatch(context.Context) (int, error) { return f.batch, f.batchErr }
func (f *fakeRelay) MoveToDLQ(context.Context) (int64, error)  { return f.moved, nil }
func (f *fakeRelay) PurgePublished(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 0, nil
}

type fakeTokens struct{ at time.Time }

func (f *fakeTokens) PurgeExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	f.at = now
	return 3, nil
}

type counter float64

func (c *counter) Add(v float64) { *c += counter(v) }

func newTestWorker(relay *fakeRelay, tokens *fakeTokens) (*Worker, *counter, *counter) {
	delivered, moved := new(counter), new(counter)
	return NewWorker(relay, tokens, delivered, moved, logger.Nop(), 48*time.Hour), delivered, moved
}

func TestWorker_DeliverCountsMessages(t *testing.T) {
	relay := &fakeRelay{batch: 4}
	w, delivered, _ := newTestWorker(relay, &fakeTokens{})

	w.deliver(context.Background())
	w.deliver(context.Background())
	assert.Equal(t, counter(8), *delivered)

	relay.batchErr = errors.New("db down")
	w.deliver(context.Background())
	assert.Equal(t, counter(8), *delivered)
}

func TestWorker_Maintenance(t *testing.T) {
	now := time.Date(2025, 5, 1, 3, 30, 0, 0, time.UTC)
	relay := &fakeRelay{moved: 2}
	tokens := &fakeTokens{}
	w, _, moved := newTestWorker(relay, tokens)
	w.now = func() time.Time { return now }

	w.purgeTokens(context.Background())
	w.moveFailed(context.Background())
	w.purgePublished(context.Background())

	assert.Equal(t, now, tokens.at)
	assert.Equal(t, counter(2), *moved)
	assert.Equal(t, 48*time.Hour, relay.retention)
}

func TestWorker_Schedule(t *testing.T) {
	w, _, _ := newTestWorker(&fakeRelay{}, &fakeTokens{})

	c := cron.New()
	require.NoError(t, w.Schedule(context.Background(), c, DefaultSchedules()))
	assert.Len(t, c.Entries(), 3)

	bad := DefaultSchedules()
	bad.MoveToDLQ = "every so often"
	err := w.Schedule(context.Background(), cron.New(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "move to DLQ")
}

func TestWorker_RunOutboxStopsOnCancel(t *testing.T) {
	w, _, _ := newTestWorker(&fakeRelay{}, &fakeTokens{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, w.RunOutbox(ctx, time.Millisecond))
}
