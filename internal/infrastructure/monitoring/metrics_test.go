package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordRegistration("panel", "add")
		m.RecordServiceCall("svc", "ok", time.Millisecond)
		m.RecordEvent("e")
		m.IncWSConnections()
	})
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestServiceCallSnapshot(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.RecordServiceCall("weather.fetch", "ok", 5*time.Millisecond)
	m.RecordServiceCall("missing", "not_found", 0)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.ServiceCalls)
	assert.Equal(t, int64(1), snap.ServiceMisses)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceCalls.WithLabelValues("missing", "not_found")))
}

func TestIsolatedRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetricsWith(prometheus.NewRegistry())
		NewMetricsWith(prometheus.NewRegistry())
	})
}

func TestHTTPErrorsCounted(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.RecordHTTPRequest("GET", "/plugins", "200", time.Millisecond)
	m.RecordHTTPRequest("POST", "/plugins/:id/reload", "404", time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}
