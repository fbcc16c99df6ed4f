// Package config provides 12-factor configuration management for the shell host.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: Frontend-facing HTTP server (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting for the HTTP API
//   - Shell: Plugin discovery directory and patterns, default layout,
//     session state file, hook and script timeouts
//   - Companion: Companion REST/WebSocket server endpoints
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Shell listening on %s\n", cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST, LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SHELL_PLUGIN_DIR, SHELL_PLUGIN_PATTERNS, SHELL_DEFAULT_LAYOUT,
//     SHELL_STATE_PATH, SHELL_HOOK_TIMEOUT, SHELL_SCRIPT_TIMEOUT
//   - COMPANION_ENABLED, COMPANION_URL, COMPANION_WS_URL, COMPANION_TIMEOUT
package config
