/*
Package monitoring provides metrics collection for the shell host.

# Overview

Prometheus metrics track the composition engine: registry mutations per
component kind, plugin lifecycle transitions and hook latency, hot reloads,
bus events and service calls, layout switches, frontend WebSocket clients and
companion server requests.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "weather", "start")
	// ... run hook ...
	timer.Stop()

Tests create an isolated registry:

	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
