package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordEvent("slot")
	m.RecordFlush("slots", 3, 0.1)
	m.RecordReconnect(2)
}

func TestRecordFlush(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordFlush("accounts", 5, 0.01)
	m.RecordFlush("accounts", 2, 0.01)
	m.RecordFlushError("accounts")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.flushes.WithLabelValues("accounts")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.rowsWritten.WithLabelValues("accounts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushErrors.WithLabelValues("accounts")))
}

func TestRouterServesMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordEvent("account")

	router := NewRouter(reg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `solana_indexer_events_received_total{kind="account"} 1`))
}
