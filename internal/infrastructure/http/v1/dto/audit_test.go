package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/domain/audit"
)

func TestAuditQuery_ToFilter(t *testing.T) {
	to := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	desc := false
	q := AuditQuery{EntityName: "Role", Action: "login", To: &to, SortBy: audit.SortByUserName, SortDescending: &desc}

	f, err := q.ToFilter()
	require.NoError(t, err)
	require.NotNil(t, f.Action)
	assert.Equal(t, audit.ActionLogin, *f.Action)
	assert.Equal(t, "Role", f.EntityName)
	assert.Equal(t, audit.SortByUserName, f.SortBy)
	assert.False(t, f.SortDescending)
	assert.Equal(t, 10, f.To.Day())
	assert.Equal(t, 23, f.To.Hour())
}

func TestAuditQuery_Defaults(t *testing.T) {
	f, err := (&AuditQuery{}).ToFilter()
	require.NoError(t, err)
	assert.Equal(t, audit.SortByCreatedAt, f.SortBy)
	assert.True(t, f.SortDescending)
	assert.Nil(t, f.Action)
}

func TestAuditQuery_NumericAction(t *testing.T) {
	f, err := (&AuditQuery{Action: "3"}).ToFilter()
	require.NoError(t, err)
	assert.Equal(t, audit.ActionDelete, *f.Action)
}

func TestAuditQuery_UnknownAction(t *testing.T) {
	_, err := (&AuditQuery{Action: "purge"}).ToFilter()
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = (&AuditQuery{Action: "99"}).ToFilter()
	assert.Error(t, err)
}
