package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/config"
)

func testCollector() *Collector {
	return NewCollector(config.MetricsConfig{Enabled: true, Namespace: "test", Path: "/metrics"}, prometheus.NewRegistry())
}

func TestRecordExport(t *testing.T) {
	c := testCollector()
	c.RecordExport(ModeDownload, OutcomeSuccess, 20*time.Millisecond, 3)
	c.RecordExport(ModeDownload, OutcomeSuccess, 30*time.Millisecond, 5)
	c.RecordExport(ModeEmail, OutcomeDeliveryError, time.Second, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.exports.WithLabelValues(ModeDownload, OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.exports.WithLabelValues(ModeEmail, OutcomeDeliveryError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.exports.WithLabelValues(ModeEmail, OutcomeSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(c.exportDuration))
}

func TestRecordWarmup(t *testing.T) {
	c := testCollector()
	c.RecordWarmup(true)
	c.RecordWarmup(false)
	c.RecordWarmup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.warmups.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.warmups.WithLabelValues("false")))
}

func TestDisabledCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(config.MetricsConfig{Enabled: false}, registry)
	c.RecordExport(ModeEmail, OutcomeSuccess, time.Second, 1)
	c.RecordWarmup(true)

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestHandler(t *testing.T) {
	c := testCollector()
	c.RecordWarmup(true)

	recorder := httptest.NewRecorder()
	c.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_health_probes_total{cold_start="true"} 1`)
}
