package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigPresets(t *testing.T) {
	dev := DefaultConfig()
	assert.Equal(t, "console", dev.Format)
	assert.Equal(t, "info", dev.Level)
	assert.Equal(t, "stdout", dev.Output)

	prod := ProductionConfig()
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, "info", prod.Level)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"console to stdout", DefaultConfig()},
		{"json to stderr", &Config{Level: "debug", Format: "json", Output: "stderr", TimeFormat: "2006-01-02"}},
		{"warn level", &Config{Level: "warn", Format: "json", Output: "stdout", TimeFormat: "2006-01-02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.NotPanics(t, func() { log.Info("server starting") })
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development", "staging", ""} {
		log, err := NewForEnvironment(env)
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"WARN", zapcore.WarnLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestWithAndNamed(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	child := Named(With(base, zap.String("warehouse", "eu-central")), "inventory")
	child.Info("stock recount finished")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "inventory", logs[0].LoggerName)
	require.Len(t, logs[0].Context, 1)
	assert.Equal(t, "warehouse", logs[0].Context[0].Key)
}

func TestCreateWriter_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markethub.log")

	log, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     path,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	require.NoError(t, err)

	log.Info("order shipped", zap.String("order_no", "ORD-2026-000158"))
	_ = Sync(log)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "order shipped", entry["msg"])
	assert.Equal(t, "ORD-2026-000158", entry["order_no"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "caller")
}

func TestCreateWriter_UnopenableFileFallsBack(t *testing.T) {
	// A directory path cannot be opened as a file; the logger must still work.
	log, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     t.TempDir(),
		TimeFormat: "2006-01-02",
	})
	require.NoError(t, err)
	assert.NotPanics(t, func() { log.Info("fallback to stdout") })
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markethub.log")

	log, err := New(&Config{
		Level:      "warn",
		Format:     "json",
		Output:     path,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	require.NoError(t, err)

	log.Debug("payload dump")
	log.Info("order shipped")
	log.Warn("stock below reorder point")
	_ = Sync(log)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "payload dump")
	assert.NotContains(t, string(data), "order shipped")
	assert.Contains(t, string(data), "stock below reorder point")
}
