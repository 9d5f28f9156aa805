package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveIntake("ok")
	m.ObserveAPI("analyze", "ok", time.Second)
	m.ObserveStore("add")
	m.ObserveDraft("committed")
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveIntake("ok")
	m.ObserveIntake("ok")
	m.ObserveIntake("IMAGE_SIZE")
	m.ObserveStore("del")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.intakeTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intakeTotal.WithLabelValues("IMAGE_SIZE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOpsTotal.WithLabelValues("del")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveAPI("analyze", "server", 150*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `hamper_api_requests_total{class="server",operation="analyze"} 1`), body)
	assert.Contains(t, body, "hamper_api_request_duration_seconds_bucket")
}
