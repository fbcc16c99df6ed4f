// Package http exposes the shell host to the frontend over a JSON REST API.
//
// Handlers are thin: each one reads a request, calls the shell, loader or
// session store, and maps domain errors onto status codes (see statusOf).
//
// Endpoints:
//   - Health: / and /health
//   - Plugins: /plugins, /plugins/:id, /plugins/:id/{start,stop,reload,update}
//   - Components: /components?kind=|capability=, /components/:id/{trigger,render}
//   - Layouts: /layouts, /layouts/active
//   - Slots: /slots, /slots/:name, /slots/:name/{active,render}
//   - Workspace: /workspace, /workspace/open, /workspace/tabs/:id
//   - Bus: /events, /services, /services/:name/call
//   - Session: /session, /session/save, /session/restore
//   - Observability: /metrics, /metrics/json, /logs, /companion
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Deps{Shell: sh, Loader: loader, Session: store})
//	handlers.Register(router)
package http
