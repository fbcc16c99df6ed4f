package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Shell     ShellConfig
	Companion CompanionConfig
}

// ServerConfig holds the frontend-facing HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string   `envconfig:"LOG_LEVEL" default:"info"`
	Development bool     `envconfig:"LOG_DEV" default:"false"`
	Outputs     []string `envconfig:"LOG_OUTPUT" default:"stdout"`
	Sampling    bool     `envconfig:"LOG_SAMPLING" default:"true"` // Production only
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// ShellConfig holds plugin discovery and layout configuration.
type ShellConfig struct {
	PluginDir      string        `envconfig:"SHELL_PLUGIN_DIR" default:"./plugins"`
	PluginPatterns []string      `envconfig:"SHELL_PLUGIN_PATTERNS" default:"**/*.plugin.yaml,**/*.plugin.yml,**/*.plugin.toml,**/*.plugin.json,**/*.plugin.js"`
	DefaultLayout  string        `envconfig:"SHELL_DEFAULT_LAYOUT" default:"classic"`
	StatePath      string        `envconfig:"SHELL_STATE_PATH" default:"./data/session.json"`
	HookTimeout    time.Duration `envconfig:"SHELL_HOOK_TIMEOUT" default:"0s"`
	ScriptTimeout  time.Duration `envconfig:"SHELL_SCRIPT_TIMEOUT" default:"5s"`
	WatchInterval  time.Duration `envconfig:"SHELL_WATCH_INTERVAL" default:"2s"` // Zero disables hot reload
	RestoreSession bool          `envconfig:"SHELL_RESTORE_SESSION" default:"true"`
	SaveOnExit     bool          `envconfig:"SHELL_SAVE_ON_EXIT" default:"true"`
}

// CompanionConfig holds the companion REST/WebSocket server connection.
type CompanionConfig struct {
	Enabled bool          `envconfig:"COMPANION_ENABLED" default:"false"`
	BaseURL string        `envconfig:"COMPANION_URL" default:"http://127.0.0.1:3001"`
	WSURL   string        `envconfig:"COMPANION_WS_URL" default:"ws://127.0.0.1:3002"`
	Timeout time.Duration `envconfig:"COMPANION_TIMEOUT" default:"10s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			Outputs:     []string{"stdout"},
			Sampling:    true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Shell: ShellConfig{
			PluginDir: "./plugins",
			PluginPatterns: []string{
				"**/*.plugin.yaml",
				"**/*.plugin.yml",
				"**/*.plugin.toml",
				"**/*.plugin.json",
				"**/*.plugin.js",
			},
			DefaultLayout:  "classic",
			StatePath:      "./data/session.json",
			ScriptTimeout:  5 * time.Second,
			WatchInterval:  2 * time.Second,
			RestoreSession: true,
			SaveOnExit:     true,
		},
		Companion: CompanionConfig{
			Enabled: false,
			BaseURL: "http://127.0.0.1:3001",
			WSURL:   "ws://127.0.0.1:3002",
			Timeout: 10 * time.Second,
		},
	}
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
