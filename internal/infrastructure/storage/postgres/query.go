package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"adminpanel/internal/core/apperror"
)

// PostgreSQL error codes mapped to application errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Get scans the single row selected by q into a T. No row maps to NotFound
// for entity/key.
func Get[T any](ctx context.Context, m *TxManager, q squirrel.Sqlizer, entity string, key any) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", entity, err)
	}

	var out T
	if err := pgxscan.Get(ctx, m.GetQuerier(ctx), &out, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", entity, err)
	}
	return &out, nil
}

// Select scans all rows selected by q.
func Select[T any](ctx context.Context, m *TxManager, q squirrel.Sqlizer, entity string) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", entity, err)
	}

	var out []T
	if err := pgxscan.Select(ctx, m.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", entity, err)
	}
	return out, nil
}

// CountQuery wraps an unpaged select into SELECT COUNT(*).
func CountQuery(q squirrel.SelectBuilder) squirrel.SelectBuilder {
	return Builder().Select("COUNT(*)").FromSelect(q.RemoveLimit().RemoveOffset(), "sub")
}

// Count returns the number of rows q selects, ignoring its paging.
func Count(ctx context.Context, m *TxManager, q squirrel.SelectBuilder) (int64, error) {
	sql, args, err := CountQuery(q).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := m.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return total, nil
}

// ExistsQuery wraps q into SELECT EXISTS (...).
func ExistsQuery(q squirrel.SelectBuilder) squirrel.SelectBuilder {
	return q.Prefix("SELECT EXISTS (").Suffix(")")
}

// Exists reports whether q selects any row.
func Exists(ctx context.Context, m *TxManager, q squirrel.SelectBuilder) (bool, error) {
	sql, args, err := ExistsQuery(q).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}
	var ok bool
	if err := m.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return ok, nil
}

// Exec runs a statement and returns the affected row count.
func Exec(ctx context.Context, m *TxManager, q squirrel.Sqlizer, entity string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s statement: %w", entity, err)
	}
	tag, err := m.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, MapError(err, entity)
	}
	return tag.RowsAffected(), nil
}

// InsertQuery builds an INSERT of v's cols returning the generated id.
func InsertQuery(table string, v any, cols []string) squirrel.InsertBuilder {
	return Builder().Insert(table).SetMap(SetMap(v, cols)).Suffix("RETURNING id")
}

// Insert writes v's cols into table and returns the generated id.
func Insert(ctx context.Context, m *TxManager, table string, v any, cols []string) (int64, error) {
	sql, args, err := InsertQuery(table, v, cols).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert %s: %w", table, err)
	}
	var newID int64
	if err := m.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&newID); err != nil {
		return 0, MapError(err, table)
	}
	return newID, nil
}

// UpdateQuery builds an UPDATE of v's cols for the non-deleted row rowID.
func UpdateQuery(table string, rowID int64, v any, cols []string) squirrel.UpdateBuilder {
	return Builder().Update(table).
		SetMap(SetMap(v, cols)).
		Where(squirrel.Eq{"id": rowID}).
		Where(NotDeleted(""))
}

// Update writes v's cols to the non-deleted row rowID. A missing row maps to
// NotFound for entity.
func Update(ctx context.Context, m *TxManager, table, entity string, rowID int64, v any, cols []string) error {
	n, err := Exec(ctx, m, UpdateQuery(table, rowID, v, cols), entity)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound(entity, rowID)
	}
	return nil
}

// MapError translates constraint violations into application errors and
// wraps everything else.
func MapError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewConflict(fmt.Sprintf("%s already exists", entity)).
				WithDetail("constraint", pgErr.ConstraintName).WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewValidation("referenced record does not exist").
				WithDetail("constraint", pgErr.ConstraintName).WithCause(err)
		}
	}
	return fmt.Errorf("%s: %w", entity, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchPattern turns free text into an ILIKE substring pattern.
func SearchPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}

// Search matches pattern against any of cols, case-insensitively.
func Search(term string, cols ...string) squirrel.Sqlizer {
	pattern := SearchPattern(term)
	or := make(squirrel.Or, len(cols))
	for i, c := range cols {
		or[i] = squirrel.ILike{c: pattern}
	}
	return or
}
