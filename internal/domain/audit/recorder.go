package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adminpanel/internal/core/apperror"
	appctx "adminpanel/internal/core/context"
	"adminpanel/internal/core/id"
	"adminpanel/internal/core/tenant"
	"adminpanel/internal/domain/filter"
	"adminpanel/pkg/logger"
)

// Store persists audit entries. List and GetByID apply the tenant scope.
type Store interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter) ([]Entry, int64, error)
	GetByID(ctx context.Context, entryID int64) (*Entry, error)
}

// FailureCounter counts audit writes that were dropped.
type FailureCounter interface {
	Inc()
}

// Writer is the part of Recorder the administrative services depend on.
type Writer interface {
	Record(ctx context.Context, entityName string, entityID int64, action Action, oldValues, newValues any)
}

// Recorder writes audit entries on behalf of the services.
//
// Record* calls never fail the caller: they are issued after the audited
// operation has committed, and a write error is logged and counted instead.
type Recorder struct {
	store    Store
	failures FailureCounter
	now      func() time.Time
}

// NewRecorder creates a recorder. failures may be nil.
func NewRecorder(store Store, failures FailureCounter) *Recorder {
	return &Recorder{
		store:    store,
		failures: failures,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record logs a change to an entity. oldValues and newValues are serialized
// as JSON; nil means absent.
func (r *Recorder) Record(ctx context.Context, entityName string, entityID int64, action Action, oldValues, newValues any) {
	e := r.newEntry(ctx, entityName, entityID, action)

	var err error
	if e.OldValues, err = marshalValues(oldValues); err != nil {
		r.fail(ctx, e, err)
		return
	}
	if e.NewValues, err = marshalValues(newValues); err != nil {
		r.fail(ctx, e, err)
		return
	}
	e.AffectedColumns = AffectedColumns(e.OldValues, e.NewValues)

	r.write(ctx, e)
}

// RecordLogin logs a successful login. The session user is not in ctx yet,
// so the identity is passed explicitly.
func (r *Recorder) RecordLogin(ctx context.Context, userID int64, username, ipAddress string) {
	e := r.newEntry(ctx, EntityUser, userID, ActionLogin)
	e.UserID = &userID
	e.UserName = &username
	if ipAddress != "" {
		e.IPAddress = &ipAddress
	}
	r.write(ctx, e)
}

// RecordLogout logs a logout.
func (r *Recorder) RecordLogout(ctx context.Context, userID int64, username string) {
	e := r.newEntry(ctx, EntityUser, userID, ActionLogout)
	e.UserID = &userID
	e.UserName = &username
	r.write(ctx, e)
}

// List returns one page of audit entries visible in the caller's tenant scope.
func (r *Recorder) List(ctx context.Context, f Filter) (filter.Result[Entry], error) {
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
		f.SortDescending = true
	}
	if f.Action != nil && !f.Action.Valid() {
		return filter.Result[Entry]{}, apperror.NewValidation("unknown audit action").
			WithDetail("action", int(*f.Action))
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return filter.Result[Entry]{}, apperror.NewValidation("fromDate must not be after toDate")
	}

	items, total, err := r.store.List(ctx, f)
	if err != nil {
		return filter.Result[Entry]{}, fmt.Errorf("list audit entries: %w", err)
	}
	return filter.NewResult(items, total, f.Page), nil
}

// GetByID returns a single entry.
func (r *Recorder) GetByID(ctx context.Context, entryID int64) (*Entry, error) {
	return r.store.GetByID(ctx, entryID)
}

func (r *Recorder) newEntry(ctx context.Context, entityName string, entityID int64, action Action) *Entry {
	e := &Entry{
		EntityName: entityName,
		Action:     action,
		TenantID:   tenant.GetTenantIDPtr(ctx),
		CreatedAt:  r.now(),
	}
	if entityID > 0 {
		s := id.Format(entityID)
		e.EntityID = &s
	}
	if u := appctx.GetUser(ctx); u != nil {
		uid, name := u.UserID, u.Username
		e.UserID = &uid
		e.UserName = &name
		if e.TenantID == nil {
			e.TenantID = u.TenantID
		}
	}
	client := appctx.GetClient(ctx)
	if client.IPAddress != "" {
		ip := client.IPAddress
		e.IPAddress = &ip
	}
	if client.UserAgent != "" {
		ua := client.UserAgent
		e.UserAgent = &ua
	}
	if rid := appctx.GetRequestID(ctx); rid != "" {
		info := fmt.Sprintf(`{"requestId":%q}`, rid)
		e.AdditionalInfo = &info
	}
	return e
}

func (r *Recorder) write(ctx context.Context, e *Entry) {
	// Detached from request cancellation: the audited change is already committed.
	if err := r.store.Insert(context.WithoutCancel(ctx), e); err != nil {
		r.fail(ctx, e, err)
	}
}

func (r *Recorder) fail(ctx context.Context, e *Entry, err error) {
	if r.failures != nil {
		r.failures.Inc()
	}
	logger.Error(ctx, "audit write failed",
		"entity", e.EntityName,
		"entity_id", e.EntityID,
		"action", e.Action.String(),
		"error", err)
}

func marshalValues(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal audit values: %w", err)
	}
	return b, nil
}
