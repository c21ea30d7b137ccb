package migrations

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	sql string
	err error
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	return pgconn.CommandTag{}, r.err
}

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{
		"tenants", "users", "roles", "permissions", "pages", "actions",
		"user_roles", "role_permissions", "page_actions", "role_page_actions",
		"audit_logs", "sys_outbox", "sys_outbox_dlq",
	} {
		assert.Contains(t, Schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, Schema, "REFERENCES page_actions (id) ON DELETE CASCADE")
}

func TestApply(t *testing.T) {
	db := &recordingExecer{}
	require.NoError(t, Apply(context.Background(), db))
	assert.Equal(t, Schema, db.sql)

	db.err = errors.New("boom")
	assert.ErrorIs(t, Apply(context.Background(), db), db.err)
}
