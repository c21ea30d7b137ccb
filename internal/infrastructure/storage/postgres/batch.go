package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// SetReplace describes a grant set owned by one parent row: every row of
// Table with OwnerColumn = OwnerID is replaced by Rows.
type SetReplace struct {
	Table       string
	OwnerColumn string
	OwnerID     int64
	Columns     []string
	Rows        [][]any
}

// ReplaceSet hard-deletes the owner's rows and bulk-inserts the new set with
// COPY. It must run inside a transaction.
func ReplaceSet(ctx context.Context, m *TxManager, s SetReplace) error {
	if !m.InTransaction(ctx) {
		return fmt.Errorf("replace %s requires a transaction", s.Table)
	}

	del := Builder().Delete(s.Table).Where(squirrel.Eq{s.OwnerColumn: s.OwnerID})
	if _, err := Exec(ctx, m, del, s.Table); err != nil {
		return err
	}
	if len(s.Rows) == 0 {
		return nil
	}

	n, err := m.GetQuerier(ctx).CopyFrom(ctx, pgx.Identifier{s.Table}, s.Columns, pgx.CopyFromRows(s.Rows))
	if err != nil {
		return MapError(err, s.Table)
	}
	if int(n) != len(s.Rows) {
		return fmt.Errorf("copy %s: wrote %d of %d rows", s.Table, n, len(s.Rows))
	}
	return nil
}

// OwnedRows builds COPY rows of (ownerID, id, extra...) for each id.
func OwnedRows(ownerID int64, ids []int64, extra ...any) [][]any {
	rows := make([][]any, len(ids))
	for i, v := range ids {
		row := make([]any, 0, 2+len(extra))
		row = append(row, ownerID, v)
		row = append(row, extra...)
		rows[i] = row
	}
	return rows
}
