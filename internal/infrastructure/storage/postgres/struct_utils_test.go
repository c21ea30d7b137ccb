package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"adminpanel/internal/core/entity"
)

type sample struct {
	entity.TenantEntity
	Code  string `db:"code"`
	Name  string `db:"name"`
	Cache int    `db:"-"`
	Note  string
}

func TestExtractDBColumns_EmbeddedInOrder(t *testing.T) {
	cols := ExtractDBColumns[sample]()

	assert.Equal(t, []string{
		"id", "created_at", "created_by", "updated_at", "updated_by",
		"is_deleted", "deleted_at", "deleted_by",
		"tenant_id", "code", "name",
	}, cols)
}

func TestStructToMap(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := sample{Code: "C1", Name: "First", Cache: 9}
	s.ID = 42
	s.TenantID = 7
	s.DeletedAt = &now

	m := StructToMap(&s)

	assert.Equal(t, int64(42), m["id"])
	assert.Equal(t, int64(7), m["tenant_id"])
	assert.Equal(t, &now, m["deleted_at"])
	assert.Equal(t, "C1", m["code"])
	assert.NotContains(t, m, "Cache")
	assert.NotContains(t, m, "Note")
	assert.Nil(t, StructToMap(3))
}

func TestColumnHelpers(t *testing.T) {
	assert.Equal(t, []string{"u.id", "u.name"}, Columns("u", []string{"id", "name"}))
	assert.Equal(t, []string{"name"}, Without([]string{"id", "name", "created_at"}, "id", "created_at"))

	s := sample{Code: "C1", Name: "First"}
	assert.Equal(t, map[string]any{"code": "C1", "name": "First"}, SetMap(s, []string{"code", "name", "missing"}))
}
