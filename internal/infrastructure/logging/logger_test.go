package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/config"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewHonoursLevel(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{"debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(Config{Level: tt.level, Outputs: []string{"stderr"}})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.muted))
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestProductionEntriesCarryServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shell.log")
	logger, err := New(Config{
		Level:   "info",
		Outputs: []string{path},
		Fields:  map[string]string{"instance": "test"},
	})
	require.NoError(t, err)

	logger.Named("registry").Info("component registered", zap.String("id", "core:welcome"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, sonic.Unmarshal(data, &entry))
	assert.Equal(t, Service, entry["service"])
	assert.Equal(t, "test", entry["instance"])
	assert.Equal(t, "registry", entry["logger"])
	assert.Equal(t, "component registered", entry["message"])
	assert.Equal(t, "core:welcome", entry["id"])
	assert.Contains(t, entry, "timestamp")
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.LogConfig{
		Level:       "debug",
		Development: true,
		Outputs:     []string{"stderr"},
		Sampling:    true,
	})
	assert.Equal(t, Config{Level: "debug", Development: true, Outputs: []string{"stderr"}, Sampling: true}, cfg)

	logger, err := New(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNopDiscards(t *testing.T) {
	assert.False(t, NewNop().Core().Enabled(zapcore.ErrorLevel))
}
