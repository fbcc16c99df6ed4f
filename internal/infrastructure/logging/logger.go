package logging

import (
	"fmt"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service is attached to every entry as the "service" field
const Service = "arcade-shell"

// Logger is the shell's root logger. Subsystems derive named children from
// it ("registry", "bus", "loader", ...), so every line carries its origin.
type Logger struct {
	*zap.Logger
}

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	Outputs     []string          // Sinks as accepted by zap: "stdout", "stderr" or file paths
	Sampling    bool              // Thin repeated entries; ignored in development
	Fields      map[string]string // Extra fields on every entry
}

// FromSettings maps the environment's logging section onto a Config
func FromSettings(s config.LogConfig) Config {
	return Config{
		Level:       s.Level,
		Development: s.Development,
		Outputs:     s.Outputs,
		Sampling:    s.Sampling,
	}
}

// New builds a logger. Development gets colored console output with
// stack traces on warnings; production gets JSON.
func New(cfg Config) (*Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.MessageKey = "message"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zc.Level = level
	if len(cfg.Outputs) > 0 {
		zc.OutputPaths = cfg.Outputs
	}
	zc.Sampling = nil
	if cfg.Sampling && !cfg.Development {
		zc.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	zc.InitialFields = map[string]interface{}{"service": Service}
	for k, v := range cfg.Fields {
		zc.InitialFields[k] = v
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: logger}, nil
}

// NewDefault creates a production logger on stdout, falling back to a
// no-op logger if the sink cannot be opened
func NewDefault() *Logger {
	logger, err := New(Config{Level: "info", Sampling: true})
	if err != nil {
		return NewNop()
	}
	return logger
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}
