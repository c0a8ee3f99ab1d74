package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/orders", "GET", 200, 20*time.Millisecond)
	m.RecordRequest("/api/orders", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/orders", "GET", "FORBIDDEN")
	m.RecordAuthDecision("allowed")
	m.RecordAuthDecision("invalid_token")
	m.RecordAuthDecision("allowed")
	m.ObserveProviderCall("InitiateAuth", "ok", 40*time.Millisecond)
	m.RecordJWKSRefresh("error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/orders", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("GET", "/api/orders", "FORBIDDEN")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("invalid_token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jwksRefreshes.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.providerCalls))
}

func TestMetricsNilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordAuthDecision("allowed")
		m.ObserveProviderCall("op", "ok", time.Millisecond)
		m.RecordJWKSRefresh("ok")
	})
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.RecordAuthDecision("forbidden")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `auth_decisions_total{outcome="forbidden"} 1`))
}
