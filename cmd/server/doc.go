// Package main is the entry point for the widget arcade shell server.
//
// The server hosts the plugin shell: it loads the built-in core plugin and
// every plugin file under the plugin directory, mounts the active layout's
// slots, and serves them to the frontend.
//
// Architecture:
//
//	Frontend → REST API (/plugins, /components, /layouts, /slots, ...)
//	         → WebSocket (/stream) ← shell bus events
//	Server   → Companion server (optional, REST + WebSocket)
//
// The server provides:
//   - Plugin lifecycle and hot reload
//   - Layout, slot and workspace state
//   - Event bus and service calls
//   - Session persistence
//   - Rate limiting and Prometheus metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8000 -plugins ./plugins
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, saving the session
package main
