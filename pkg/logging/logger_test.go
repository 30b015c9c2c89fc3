package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvLevel, "")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, slog.LevelInfo, cfg.Level)
}

func TestLoadConfigFromEnv_ValidValues(t *testing.T) {
	t.Setenv(EnvFormat, "TEXT")
	t.Setenv(EnvLevel, "debug")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, slog.LevelDebug, cfg.Level)
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		t.Setenv(EnvFormat, "yaml")
		t.Setenv(EnvLevel, "")
		_, err := LoadConfigFromEnv()
		assert.ErrorContains(t, err, EnvFormat)
	})
	t.Run("level", func(t *testing.T) {
		t.Setenv(EnvFormat, "")
		t.Setenv(EnvLevel, "trace")
		_, err := LoadConfigFromEnv()
		assert.ErrorContains(t, err, EnvLevel)
	})
}

func TestNewLogger_JSONIncludesStaticAttrs(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(DefaultConfig(), &out, "dashboard-server serve")
	logger.Info("hello", "port", 3000)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out.String())), &payload))
	assert.Equal(t, "dashboard-server", payload["app"])
	assert.Equal(t, "dashboard-server serve", payload["command"])
	assert.Equal(t, "hello", payload["msg"])
	assert.Equal(t, float64(3000), payload["port"])
}

func TestNewLogger_TextFormatAndDefaultCommand(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(Config{Format: "text", Level: slog.LevelInfo}, &out, "  ")
	logger.Info("ready")

	line := out.String()
	assert.Contains(t, line, "msg=ready")
	assert.Contains(t, line, "command=dashboard-server")
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(Config{Format: "json", Level: slog.LevelWarn}, &out, "x")
	logger.Info("dropped")
	assert.Empty(t, out.String())
	logger.Warn("kept")
	assert.Contains(t, out.String(), "kept")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
