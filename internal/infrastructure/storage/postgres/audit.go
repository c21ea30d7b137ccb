package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/domain/audit"
)

// CompressionAlgo names the codec of a stored audit payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which old/new values
// are stored zstd-compressed.
const DefaultCompressThreshold = 8 * 1024

type auditRow struct {
	ID                  int64           `db:"id"`
	UserID              *int64          `db:"user_id"`
	UserName            *string         `db:"user_name"`
	TenantID            *int64          `db:"tenant_id"`
	EntityName          string          `db:"entity_name"`
	EntityID            *string         `db:"entity_id"`
	Action              audit.Action    `db:"action"`
	OldValues           json.RawMessage `db:"old_values"`
	NewValues           json.RawMessage `db:"new_values"`
	OldValuesCompressed []byte          `db:"old_values_compressed"`
	NewValuesCompressed []byte          `db:"new_values_compressed"`
	Compression         CompressionAlgo `db:"compression"`
	AffectedColumns     []string        `db:"affected_columns"`
	IPAddress           *string         `db:"ip_address"`
	UserAgent           *string         `db:"user_agent"`
	AdditionalInfo      *string         `db:"additional_info"`
	CreatedAt           time.Time       `db:"created_at"`
}

var (
	auditColumns    = ExtractDBColumns[auditRow]()
	auditInsertCols = Without(auditColumns, "id")
)

// AuditStore implements audit.Store on the audit_logs table.
type AuditStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Store = (*AuditStore)(nil)

// NewAuditStore creates an audit store with the default compression threshold.
func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// toRow converts an entry, compressing both payloads when either exceeds the
// threshold.
func (s *AuditStore) toRow(e *audit.Entry) auditRow {
	row := auditRow{
		UserID:          e.UserID,
		UserName:        e.UserName,
		TenantID:        e.TenantID,
		EntityName:      e.EntityName,
		EntityID:        e.EntityID,
		Action:          e.Action,
		OldValues:       e.OldValues,
		NewValues:       e.NewValues,
		Compression:     CompressionNone,
		AffectedColumns: e.AffectedColumns,
		IPAddress:       e.IPAddress,
		UserAgent:       e.UserAgent,
		AdditionalInfo:  e.AdditionalInfo,
		CreatedAt:       e.CreatedAt,
	}
	if len(e.OldValues) > s.compressThreshold || len(e.NewValues) > s.compressThreshold {
		row.OldValuesCompressed = s.compress(e.OldValues)
		row.NewValuesCompressed = s.compress(e.NewValues)
		row.OldValues, row.NewValues = nil, nil
		row.Compression = CompressionZstd
	}
	return row
}

func (s *AuditStore) compress(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return s.encoder.EncodeAll(b, nil)
}

func (s *AuditStore) fromRow(row auditRow) (audit.Entry, error) {
	e := audit.Entry{
		ID:              row.ID,
		UserID:          row.UserID,
		UserName:        row.UserName,
		TenantID:        row.TenantID,
		EntityName:      row.EntityName,
		EntityID:        row.EntityID,
		Action:          row.Action,
		OldValues:       row.OldValues,
		NewValues:       row.NewValues,
		AffectedColumns: row.AffectedColumns,
		IPAddress:       row.IPAddress,
		UserAgent:       row.UserAgent,
		AdditionalInfo:  row.AdditionalInfo,
		CreatedAt:       row.CreatedAt,
	}
	if row.Compression != CompressionZstd {
		return e, nil
	}

	var err error
	if e.OldValues, err = s.decompress(row.OldValuesCompressed); err != nil {
		return e, fmt.Errorf("decompress audit %d old values: %w", row.ID, err)
	}
	if e.NewValues, err = s.decompress(row.NewValuesCompressed); err != nil {
		return e, fmt.Errorf("decompress audit %d new values: %w", row.ID, err)
	}
	return e, nil
}

func (s *AuditStore) decompress(b []byte) (json.RawMessage, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return s.decoder.DecodeAll(b, nil)
}

// Insert appends an entry and sets its id.
func (s *AuditStore) Insert(ctx context.Context, e *audit.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	row := s.toRow(e)
	newID, err := Insert(ctx, s.txManager, "audit_logs", row, auditInsertCols)
	if err != nil {
		return err
	}
	e.ID = newID
	return nil
}

var auditSortColumns = map[string]string{
	audit.SortByCreatedAt:  "al.created_at",
	audit.SortByEntityName: "al.entity_name",
	audit.SortByAction:     "al.action",
	audit.SortByUserName:   "al.user_name",
}

func scopedAudit(ctx context.Context) squirrel.SelectBuilder {
	return Builder().
		Select(Columns("al", auditColumns)...).
		From("audit_logs al").
		Where(TenantMatches(ctx, "al"))
}

// AuditListQuery builds the filtered, sorted audit listing.
func AuditListQuery(ctx context.Context, f audit.Filter) squirrel.SelectBuilder {
	q := scopedAudit(ctx)
	if f.Search != "" {
		q = q.Where(Search(f.Search, "al.entity_name", "al.user_name", "al.entity_id"))
	}
	if f.UserID != nil {
		q = q.Where(squirrel.Eq{"al.user_id": *f.UserID})
	}
	if f.EntityName != "" {
		q = q.Where(squirrel.Eq{"al.entity_name": f.EntityName})
	}
	if f.Action != nil {
		q = q.Where(squirrel.Eq{"al.action": *f.Action})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"al.created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"al.created_at": *f.To})
	}

	col, ok := auditSortColumns[f.SortBy]
	if !ok {
		col = auditSortColumns[audit.SortByCreatedAt]
	}
	dir := "ASC"
	if f.SortDescending {
		dir = "DESC"
	}
	return q.OrderBy(col+" "+dir, "al.id "+dir)
}

// List returns one page of entries visible in the tenant scope.
func (s *AuditStore) List(ctx context.Context, f audit.Filter) ([]audit.Entry, int64, error) {
	q := AuditListQuery(ctx, f)
	total, err := Count(ctx, s.txManager, q)
	if err != nil {
		return nil, 0, err
	}
	rows, err := Select[auditRow](ctx, s.txManager, q.Limit(f.Limit()).Offset(f.Offset()), "audit log")
	if err != nil {
		return nil, 0, err
	}

	out := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := s.fromRow(row)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, nil
}

// GetByID returns a single entry visible in the tenant scope.
func (s *AuditStore) GetByID(ctx context.Context, entryID int64) (*audit.Entry, error) {
	row, err := Get[auditRow](ctx, s.txManager, scopedAudit(ctx).Where(squirrel.Eq{"al.id": entryID}), "audit log", entryID)
	if err != nil {
		return nil, err
	}
	e, err := s.fromRow(*row)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &e, nil
}
