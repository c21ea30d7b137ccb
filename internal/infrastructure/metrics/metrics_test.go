package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/infrastructure/storage/postgres"
)

type fixedStats postgres.PoolStats

func (f fixedStats) Stats() postgres.PoolStats { return postgres.PoolStats(f) }

func TestAuditWriteFailures(t *testing.T) {
	m := New()
	m.AuditWriteFailures.Inc()
	m.AuditWriteFailures.Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuditWriteFailures))
}

func TestLoginAttempts(t *testing.T) {
	m := New()
	m.LoginAttemptsTotal.WithLabelValues("success").Inc()
	m.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
	m.LoginAttemptsTotal.WithLabelValues("success").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("success")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.LoginAttemptsTotal))
}

func TestHandler_ExposesPoolGauges(t *testing.T) {
	m := New()
	m.RegisterPool(fixedStats{TotalConns: 5, AcquiredConns: 2, IdleConns: 3, MaxConns: 20, AcquireCount: 40})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "adminpanel_db_pool_total_conns 5")
	assert.Contains(t, text, "adminpanel_db_pool_max_conns 20")
	assert.Contains(t, text, "adminpanel_db_pool_acquire_total 40")
	assert.True(t, strings.Contains(text, "go_goroutines"))
}

func TestLoginOutcome_LowercasesCodes(t *testing.T) {
	m := New()
	m.LoginOutcome("INVALID_CREDENTIALS")
	m.LoginOutcome("invalid_credentials")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("invalid_credentials")))
}

func TestReject(t *testing.T) {
	m := New()
	m.Reject("/api/v1/auth/login")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitedTotal.WithLabelValues("/api/v1/auth/login")))
}
