package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/tenant"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
)

type memRepo struct {
	nextID  int64
	tenants map[int64]*Tenant
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*Tenant, error) {
	t, ok := m.tenants[id]
	if !ok || t.IsDeleted {
		return nil, apperror.NewNotFound("tenant", id)
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) List(context.Context) ([]Tenant, error) {
	var out []Tenant
	for i := int64(1); i < m.nextID; i++ {
		if t, ok := m.tenants[i]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memRepo) ExistsByName(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, t := range m.tenants {
		if t.Name == name && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Create(_ context.Context, t *Tenant) error {
	t.ID = m.nextID
	m.nextID++
	cp := *t
	m.tenants[t.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, t *Tenant) error {
	cp := *t
	m.tenants[t.ID] = &cp
	return nil
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, string, int64, audit.Action, any, any) {}

func setup() (*Service, *memRepo) {
	repo := &memRepo{nextID: 1, tenants: map[int64]*Tenant{}}
	svc := NewService(repo, tx.Passthrough, nopAudit{})
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreateAndUpdate(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	a, err := svc.Create(ctx, Request{Name: "Acme", Settings: json.RawMessage(`{"theme":"dark"}`)})
	require.NoError(t, err)
	assert.True(t, a.IsActive)

	_, err = svc.Create(ctx, Request{Name: "Acme"})
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))

	_, err = svc.Create(ctx, Request{Name: "Bad", Settings: json.RawMessage(`[1,2]`)})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	u, err := svc.Update(ctx, a.ID, Request{Name: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", u.Name)
	assert.JSONEq(t, `{"theme":"dark"}`, string(u.Settings))
}

func TestResolve(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	ok, err := svc.Create(ctx, Request{Name: "ok", SubscriptionEndDate: &future})
	require.NoError(t, err)
	expired, err := svc.Create(ctx, Request{Name: "expired", SubscriptionEndDate: &past})
	require.NoError(t, err)
	off, err := svc.Create(ctx, Request{Name: "off"})
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(ctx, off.ID, false))

	_, err = svc.Resolve(ctx, ok.ID)
	assert.NoError(t, err)

	_, err = svc.Resolve(ctx, expired.ID)
	assert.True(t, errors.Is(err, tenant.ErrSubscriptionExpired))
	assert.Equal(t, 403, apperror.GetHTTPStatus(err))

	_, err = svc.Resolve(ctx, off.ID)
	assert.True(t, errors.Is(err, tenant.ErrTenantNotActive))

	_, err = svc.Resolve(ctx, 99)
	assert.True(t, errors.Is(err, tenant.ErrTenantNotFound))
}

func TestToggleStatus(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()
	a, err := svc.Create(ctx, Request{Name: "Acme"})
	require.NoError(t, err)

	active, err := svc.ToggleStatus(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.False(t, repo.tenants[a.ID].IsActive)
}
