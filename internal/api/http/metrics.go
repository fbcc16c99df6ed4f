package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/companion"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/bus"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/component"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot aggregates counters and live shell state
type MetricsSnapshot struct {
	Timestamp time.Time                  `json:"timestamp"`
	Uptime    float64                    `json:"uptime_seconds"`
	Counters  monitoring.MetricsSnapshot `json:"counters"`
	Registry  component.Stats            `json:"registry"`
	Bus       bus.Stats                  `json:"bus"`
	Plugins   map[types.PluginState]int  `json:"plugins"`
	Companion companion.Status           `json:"companion"`
	Summary   MetricsSummary             `json:"summary"`
}

// MetricsSummary provides high-level ratios
type MetricsSummary struct {
	ErrorRate       float64 `json:"error_rate"`
	ServiceMissRate float64 `json:"service_miss_rate"`
}

// Prometheus serves the Prometheus exposition format
func (h *Handlers) Prometheus(c *gin.Context) {
	promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
}

// MetricsJSON returns the aggregated metrics snapshot
func (h *Handlers) MetricsJSON(c *gin.Context) {
	counters := h.metrics.Snapshot()

	plugins := make(map[types.PluginState]int)
	for _, p := range h.loader.Plugins() {
		plugins[p.State]++
	}

	c.JSON(http.StatusOK, MetricsSnapshot{
		Timestamp: time.Now(),
		Uptime:    h.metrics.UptimeDuration().Seconds(),
		Counters:  counters,
		Registry:  h.shell.Registry.Stats(),
		Bus:       h.shell.Bus.Stats(),
		Plugins:   plugins,
		Companion: h.companion.Status(),
		Summary: MetricsSummary{
			ErrorRate:       ratio(counters.TotalErrors, counters.TotalRequests),
			ServiceMissRate: ratio(counters.ServiceMisses, counters.ServiceCalls),
		},
	})
}

func ratio(n, d int64) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
