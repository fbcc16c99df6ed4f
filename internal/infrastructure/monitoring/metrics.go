package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. All record methods are safe on a nil
// receiver so components can run without monitoring.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Registry metrics
	Components      *prometheus.GaugeVec
	Registrations   *prometheus.CounterVec
	RegistryRejects *prometheus.CounterVec

	// Plugin metrics
	PluginTransitions *prometheus.CounterVec
	PluginHookLatency *prometheus.HistogramVec
	PluginReloads     *prometheus.CounterVec

	// Bus metrics
	EventsEmitted  *prometheus.CounterVec
	HandlerPanics  *prometheus.CounterVec
	ServiceCalls   *prometheus.CounterVec
	ServiceLatency *prometheus.HistogramVec

	// Layout metrics
	LayoutSwitches *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// Companion metrics
	CompanionRequests *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current values for the JSON API
type MetricsSnapshot struct {
	TotalRequests     int64 `json:"total_requests"`
	TotalErrors       int64 `json:"total_errors"`
	EventsEmitted     int64 `json:"events_emitted"`
	ServiceCalls      int64 `json:"service_calls"`
	ServiceMisses     int64 `json:"service_misses"`
	Reloads           int64 `json:"reloads"`
	ActiveConnections int64 `json:"active_connections"`
}

// NewMetrics registers metrics on the default Prometheus registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers metrics on reg. Tests pass prometheus.NewRegistry().
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arcade_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		Components: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arcade_registry_components",
				Help: "Number of registered components by kind",
			},
			[]string{"kind"},
		),
		Registrations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_registry_mutations_total",
				Help: "Registry mutations by kind and operation",
			},
			[]string{"kind", "op"},
		),
		RegistryRejects: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_registry_rejects_total",
				Help: "Rejected registrations by reason",
			},
			[]string{"reason"},
		),

		PluginTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_plugin_transitions_total",
				Help: "Plugin lifecycle transitions",
			},
			[]string{"plugin", "to"},
		),
		PluginHookLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arcade_plugin_hook_duration_seconds",
				Help:    "Plugin lifecycle hook duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15},
			},
			[]string{"plugin", "hook"},
		),
		PluginReloads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_plugin_reloads_total",
				Help: "Hot reloads by plugin and outcome",
			},
			[]string{"plugin", "status"},
		),

		EventsEmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_bus_events_total",
				Help: "Events emitted on the bus",
			},
			[]string{"event"},
		),
		HandlerPanics: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_bus_handler_panics_total",
				Help: "Recovered panics in event handlers",
			},
			[]string{"event"},
		),
		ServiceCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_bus_service_calls_total",
				Help: "Service calls by name and status",
			},
			[]string{"service", "status"},
		),
		ServiceLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arcade_bus_service_duration_seconds",
				Help:    "Service call duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"service"},
		),

		LayoutSwitches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_layout_switches_total",
				Help: "Active layout switches by outcome",
			},
			[]string{"status"},
		),

		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "arcade_ws_connections",
				Help: "Number of connected frontend clients",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_ws_messages_total",
				Help: "WebSocket messages by direction and type",
			},
			[]string{"direction", "type"},
		),

		CompanionRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arcade_companion_requests_total",
				Help: "Requests to the companion server",
			},
			[]string{"method", "status"},
		),

		Uptime: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "arcade_uptime_seconds",
				Help: "Shell host uptime in seconds",
			},
		),
	}

	return m
}

// StartUptime updates the uptime gauge until stop is closed
func (m *Metrics) StartUptime(stop <-chan struct{}) {
	if m == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Uptime.Set(time.Since(m.startTime).Seconds())
			case <-stop:
				return
			}
		}
	}()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordRegistration records a registry mutation ("add", "replace", "remove")
func (m *Metrics) RecordRegistration(kind, op string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(kind, op).Inc()
}

// SetComponents sets the live component count for kind
func (m *Metrics) SetComponents(kind string, count int) {
	if m == nil {
		return
	}
	m.Components.WithLabelValues(kind).Set(float64(count))
}

// RecordReject records a rejected registration
func (m *Metrics) RecordReject(reason string) {
	if m == nil {
		return
	}
	m.RegistryRejects.WithLabelValues(reason).Inc()
}

// RecordTransition records a plugin lifecycle transition
func (m *Metrics) RecordTransition(plugin, to string) {
	if m == nil {
		return
	}
	m.PluginTransitions.WithLabelValues(plugin, to).Inc()
}

// RecordHook records how long a plugin lifecycle hook took
func (m *Metrics) RecordHook(plugin, hook string, duration time.Duration) {
	if m == nil {
		return
	}
	m.PluginHookLatency.WithLabelValues(plugin, hook).Observe(duration.Seconds())
}

// RecordReload records a hot reload outcome
func (m *Metrics) RecordReload(plugin, status string) {
	if m == nil {
		return
	}
	m.PluginReloads.WithLabelValues(plugin, status).Inc()

	m.mu.Lock()
	m.snapshot.Reloads++
	m.mu.Unlock()
}

// RecordEvent records an emitted event
func (m *Metrics) RecordEvent(event string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(event).Inc()

	m.mu.Lock()
	m.snapshot.EventsEmitted++
	m.mu.Unlock()
}

// RecordHandlerPanic records a recovered panic in an event handler
func (m *Metrics) RecordHandlerPanic(event string) {
	if m == nil {
		return
	}
	m.HandlerPanics.WithLabelValues(event).Inc()
}

// RecordServiceCall records a service call ("ok", "error", "not_found")
func (m *Metrics) RecordServiceCall(service, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ServiceCalls.WithLabelValues(service, status).Inc()
	if status != "not_found" {
		m.ServiceLatency.WithLabelValues(service).Observe(duration.Seconds())
	}

	m.mu.Lock()
	m.snapshot.ServiceCalls++
	if status == "not_found" {
		m.snapshot.ServiceMisses++
	}
	m.mu.Unlock()
}

// RecordLayoutSwitch records an active layout change ("ok", "unknown")
func (m *Metrics) RecordLayoutSwitch(status string) {
	if m == nil {
		return
	}
	m.LayoutSwitches.WithLabelValues(status).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// RecordCompanionRequest records a request to the companion server
func (m *Metrics) RecordCompanionRequest(method, status string) {
	if m == nil {
		return
	}
	m.CompanionRequests.WithLabelValues(method, status).Inc()
}

// Snapshot returns the current JSON-friendly counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeDuration returns time since the metrics were created
func (m *Metrics) UptimeDuration() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime)
}
