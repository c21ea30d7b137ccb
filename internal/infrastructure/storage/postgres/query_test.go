package postgres

import (
	"errors"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/apperror"
)

func TestCountQuery_DropsPaging(t *testing.T) {
	q := Builder().Select("r.id").From("roles r").
		Where(squirrel.Eq{"r.is_active": true}).
		OrderBy("r.name").
		Limit(10).Offset(20)

	sql, args, err := CountQuery(q).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM (SELECT r.id FROM roles r WHERE r.is_active = $1 ORDER BY r.name) AS sub", sql)
	assert.Equal(t, []any{true}, args)
}

func TestExistsQuery(t *testing.T) {
	q := Builder().Select("1").From("roles").
		Where(squirrel.Eq{"name": "Admin"}).
		Where(squirrel.NotEq{"id": int64(4)})

	sql, args, err := ExistsQuery(q).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT EXISTS ( SELECT 1 FROM roles WHERE name = $1 AND id <> $2 )", sql)
	assert.Equal(t, []any{"Admin", int64(4)}, args)
}

type row struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Code string `db:"code"`
}

func TestInsertQuery(t *testing.T) {
	sql, args, err := InsertQuery("items", row{ID: 5, Name: "n", Code: "c"}, []string{"name", "code"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO items (code,name) VALUES ($1,$2) RETURNING id", sql)
	assert.Equal(t, []any{"c", "n"}, args)
}

func TestUpdateQuery(t *testing.T) {
	sql, args, err := UpdateQuery("items", 5, row{Name: "n"}, []string{"name"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE items SET name = $1 WHERE id = $2 AND is_deleted = FALSE", sql)
	assert.Equal(t, []any{"n", int64(5)}, args)
}

func TestMapError(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "roles_name_key"}
	err := MapError(unique, "role")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, "roles_name_key", appErr.Details["constraint"])

	fk := &pgconn.PgError{Code: "23503"}
	assert.True(t, apperror.IsCode(MapError(fk, "user_roles"), apperror.CodeValidation))

	other := errors.New("boom")
	err = MapError(other, "role")
	assert.False(t, apperror.IsAppError(err))
	assert.ErrorIs(t, err, other)
}

func TestOwnedRows(t *testing.T) {
	rows := OwnedRows(3, []int64{10, 11}, true)
	assert.Equal(t, [][]any{{int64(3), int64(10), true}, {int64(3), int64(11), true}}, rows)
	assert.Empty(t, OwnedRows(3, nil))
}

func TestSearch(t *testing.T) {
	assert.Equal(t, `%50\% off\_now%`, SearchPattern(" 50% off_now "))

	sql, args, err := Builder().Select("id").From("users u").
		Where(Search("ann", "u.username", "u.email")).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users u WHERE (u.username ILIKE $1 OR u.email ILIKE $2)", sql)
	assert.Equal(t, []any{"%ann%", "%ann%"}, args)
}
