package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/entity"
	"adminpanel/internal/domain/tenants"
)

type fakeTenants struct {
	list    []tenants.Tenant
	created tenants.Request
	active  map[int64]bool
	err     error
}

func (f *fakeTenants) GetAll(context.Context) ([]tenants.Tenant, error) { return f.list, f.err }

func (f *fakeTenants) Create(_ context.Context, req tenants.Request) (*tenants.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = req
	return &tenants.Tenant{BaseEntity: entity.BaseEntity{ID: 9}, Name: req.Name}, nil
}

func (f *fakeTenants) SetActive(_ context.Context, tenantID int64, active bool) error {
	if f.err != nil {
		return f.err
	}
	if f.active == nil {
		f.active = map[int64]bool{}
	}
	f.active[tenantID] = active
	return nil
}

func TestCreate(t *testing.T) {
	svc := &fakeTenants{}
	var out bytes.Buffer

	err := run(context.Background(), svc, []string{"create", "--name", "Acme", "--domain", "acme.test", "--until", "2026-12-31"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "Acme", svc.created.Name)
	require.NotNil(t, svc.created.Domain)
	assert.Equal(t, "acme.test", *svc.created.Domain)
	require.NotNil(t, svc.created.SubscriptionEndDate)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 999999999, time.UTC), *svc.created.SubscriptionEndDate)
	assert.Equal(t, "Tenant 'Acme' created with id 9\n", out.String())
}

func TestCreate_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing name", []string{"create"}, "--name is required"},
		{"dangling flag", []string{"create", "--name"}, "--name needs a value"},
		{"unknown flag", []string{"create", "--plan", "gold"}, "unknown option: --plan"},
		{"bad date", []string{"create", "--name", "A", "--until", "tomorrow"}, "--until must be YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), &fakeTenants{}, tt.args, &bytes.Buffer{})
			var usage usageError
			require.ErrorAs(t, err, &usage)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestList(t *testing.T) {
	domain := "acme.test"
	until := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	svc := &fakeTenants{list: []tenants.Tenant{
		{BaseEntity: entity.BaseEntity{ID: 1}, Name: "Acme", Domain: &domain, IsActive: true, SubscriptionEndDate: &until},
		{BaseEntity: entity.BaseEntity{ID: 2}, Name: "Globex"},
	}}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), svc, []string{"list"}, &out))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "SUBSCRIPTION END")
	assert.Regexp(t, `^1\s+Acme\s+acme\.test\s+true\s+2026-01-31$`, string(lines[1]))
	assert.Regexp(t, `^2\s+Globex\s+-\s+false\s+-$`, string(lines[2]))
}

func TestActivateDeactivate(t *testing.T) {
	svc := &fakeTenants{}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), svc, []string{"deactivate", "3"}, &out))
	require.NoError(t, run(context.Background(), svc, []string{"activate", "4"}, &out))

	assert.Equal(t, map[int64]bool{3: false, 4: true}, svc.active)
	assert.Equal(t, "Tenant 3 deactivated\nTenant 4 activated\n", out.String())
}

func TestSetActive_InvalidID(t *testing.T) {
	for _, args := range [][]string{{"activate"}, {"activate", "x"}, {"activate", "0"}} {
		err := run(context.Background(), &fakeTenants{}, args, &bytes.Buffer{})
		var usage usageError
		assert.ErrorAs(t, err, &usage, args)
	}
}

func TestServiceErrorsPassThrough(t *testing.T) {
	boom := errors.New("db down")
	err := run(context.Background(), &fakeTenants{err: boom}, []string{"list"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, boom)
}

func TestUnknownCommand(t *testing.T) {
	err := run(context.Background(), &fakeTenants{}, []string{"migrate"}, &bytes.Buffer{})
	assert.EqualError(t, err, "unknown command: migrate")
}
