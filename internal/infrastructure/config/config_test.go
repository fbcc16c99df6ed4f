package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, []string{"stdout"}, cfg.Logging.Outputs)
	assert.True(t, cfg.Logging.Sampling)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.Equal(t, "./plugins", cfg.Shell.PluginDir)
	assert.Equal(t, "classic", cfg.Shell.DefaultLayout)
	assert.Len(t, cfg.Shell.PluginPatterns, 5)
	assert.Equal(t, 5*time.Second, cfg.Shell.ScriptTimeout)
	assert.Equal(t, 2*time.Second, cfg.Shell.WatchInterval)
	assert.True(t, cfg.Shell.RestoreSession)

	assert.False(t, cfg.Companion.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Companion.Timeout)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                  "9000",
		"HOST":                  "0.0.0.0",
		"LOG_LEVEL":             "debug",
		"LOG_DEV":               "true",
		"LOG_OUTPUT":            "stderr,/var/log/arcade.log",
		"RATE_LIMIT_ENABLED":    "false",
		"SHELL_PLUGIN_DIR":      "/opt/arcade/plugins",
		"SHELL_PLUGIN_PATTERNS": "*.yaml,*.js",
		"SHELL_DEFAULT_LAYOUT":  "focus",
		"SHELL_HOOK_TIMEOUT":    "30s",
		"SHELL_WATCH_INTERVAL":  "0s",
		"COMPANION_ENABLED":     "true",
		"COMPANION_URL":         "http://localhost:4000",
		"COMPANION_TIMEOUT":     "2s",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "/opt/arcade/plugins", cfg.Shell.PluginDir)
	assert.Equal(t, []string{"*.yaml", "*.js"}, cfg.Shell.PluginPatterns)
	assert.Equal(t, "focus", cfg.Shell.DefaultLayout)
	assert.Equal(t, 30*time.Second, cfg.Shell.HookTimeout)
	assert.Zero(t, cfg.Shell.WatchInterval)
	assert.True(t, cfg.Companion.Enabled)
	assert.Equal(t, "http://localhost:4000", cfg.Companion.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Companion.Timeout)
}

func TestLoadOrDefaultFallsBackOnBadValue(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "lots")

	_, err := Load()
	require.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
}

func TestServerConfig(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		host     string
		wantAddr string
	}{
		{name: "default values", wantAddr: "127.0.0.1:8000"},
		{name: "custom port", port: "9000", wantAddr: "127.0.0.1:9000"},
		{name: "custom host", host: "localhost", wantAddr: "localhost:8000"},
		{name: "custom port and host", port: "3000", host: "0.0.0.0", wantAddr: "0.0.0.0:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.port != "" {
				t.Setenv("PORT", tt.port)
			}
			if tt.host != "" {
				t.Setenv("HOST", tt.host)
			}

			cfg := LoadOrDefault()
			assert.Equal(t, tt.wantAddr, cfg.Addr())
		})
	}
}
