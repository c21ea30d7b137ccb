package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
	"adminpanel/internal/domain/rbac"
)

type memRepo struct {
	nextID  int64
	actions map[int64]*rbac.Action
	inUse   map[int64]bool
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*rbac.Action, error) {
	a, ok := m.actions[id]
	if !ok || a.IsDeleted {
		return nil, apperror.NewNotFound("action", id)
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) ListActive(context.Context) ([]rbac.Action, error) {
	var out []rbac.Action
	for i := int64(1); i < m.nextID; i++ {
		if a, ok := m.actions[i]; ok && !a.IsDeleted && a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memRepo) ListPaged(ctx context.Context, _ Filter) ([]rbac.Action, int64, error) {
	list, _ := m.ListActive(ctx)
	return list, int64(len(list)), nil
}

func (m *memRepo) ExistsByCode(_ context.Context, code string, excludeID int64) (bool, error) {
	for _, a := range m.actions {
		if !a.IsDeleted && a.Code == code && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Create(_ context.Context, a *rbac.Action) error {
	a.ID = m.nextID
	m.nextID++
	cp := *a
	m.actions[a.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, a *rbac.Action) error {
	cp := *a
	m.actions[a.ID] = &cp
	return nil
}

func (m *memRepo) InUse(_ context.Context, id int64) (bool, error) { return m.inUse[id], nil }

type memAudit struct{ actions []audit.Action }

func (a *memAudit) Record(_ context.Context, _ string, _ int64, action audit.Action, _, _ any) {
	a.actions = append(a.actions, action)
}

func setup(t *testing.T) (*Service, *memRepo, *memAudit) {
	t.Helper()
	repo := &memRepo{nextID: 1, actions: map[int64]*rbac.Action{}, inUse: map[int64]bool{}}
	rec := &memAudit{}
	svc := NewService(repo, tx.Passthrough, rec)
	_, err := svc.Create(context.Background(), Request{NameAr: "عرض", NameEn: "View", Code: "view"})
	require.NoError(t, err)
	return svc, repo, rec
}

func TestCreate(t *testing.T) {
	svc, repo, rec := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, Request{NameAr: "إضافة", NameEn: "Create", Code: " Create "})
	require.NoError(t, err)
	assert.Equal(t, "create", a.Code)
	assert.True(t, a.IsActive)
	assert.Len(t, repo.actions, 2)
	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionCreate}, rec.actions)

	_, err = svc.Create(ctx, Request{NameAr: "x", NameEn: "x", Code: "VIEW"})
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))
}

func TestUpdate(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, Request{NameAr: "x", NameEn: "Edit", Code: "edit"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 2, Request{NameAr: "x", NameEn: "Edit", Code: "view"})
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))

	inactive := false
	a, err := svc.Update(ctx, 2, Request{NameAr: "x", NameEn: "Modify", Code: "edit", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Modify", a.NameEn)
	assert.False(t, a.IsActive)
}

func TestDelete_InUse(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	repo.inUse[1] = true
	err := svc.Delete(ctx, 1)
	assert.True(t, apperror.IsCode(err, apperror.CodeActionInUse))
	assert.Equal(t, 422, apperror.GetHTTPStatus(err))

	repo.inUse[1] = false
	require.NoError(t, svc.Delete(ctx, 1))
	_, err = svc.GetByID(ctx, 1)
	assert.True(t, apperror.IsNotFound(err))

	ok, err := svc.IsCodeUnique(ctx, "view", 0)
	require.NoError(t, err)
	assert.True(t, ok, "deleted codes can be reused")
}

func TestToggleStatus(t *testing.T) {
	svc, _, _ := setup(t)
	active, err := svc.ToggleStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, active)

	all, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
