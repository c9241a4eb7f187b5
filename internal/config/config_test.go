package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/brewmon/internal/config"
	"codeberg.org/mutker/brewmon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	os.Args = append([]string{"brewmon"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })
}

func TestLoad(t *testing.T) {
	resetArgs(t)

	tempDir := t.TempDir()
	configContent := []byte(`
api_url = "https://brew.example.com/api"
transport = "sse"
reconnect_base_ms = 500
reconnect_max_ms = 10000
history_size = 64
telemetry = true
database = "/path/to/telemetry.db"
log_level = "debug"
`)
	configPath := filepath.Join(tempDir, "brewmon.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("BREWMON_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://brew.example.com/api", cfg.APIURL)
	assert.Equal(t, "sse", cfg.Transport)
	assert.Equal(t, 500, cfg.ReconnectBaseMs)
	assert.Equal(t, 10000, cfg.ReconnectMaxMs)
	assert.Equal(t, 64, cfg.HistorySize)
	assert.True(t, cfg.Telemetry, "Expected Telemetry true")
	assert.Equal(t, "/path/to/telemetry.db", cfg.TelemetryDB)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDefaults(t *testing.T) {
	resetArgs(t)
	t.Setenv("BREWMON_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, "http://localhost:8000/api", cfg.APIURL)
	assert.Equal(t, "websocket", cfg.Transport)
	assert.Equal(t, 1000, cfg.ReconnectBaseMs)
	assert.Equal(t, 30000, cfg.ReconnectMaxMs)
	assert.Equal(t, 128, cfg.HistorySize)
	assert.False(t, cfg.Telemetry, "Expected default Telemetry false")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	resetArgs(t)

	tempDir := t.TempDir()
	configContent := []byte(`
This is not a valid TOML file
`)
	configPath := filepath.Join(tempDir, "brewmon.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("BREWMON_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	resetArgs(t)

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "brewmon.toml")
	err := os.WriteFile(configPath, []byte(`
log_level = "invalid"
`), 0o600)
	require.NoError(t, err)

	t.Setenv("BREWMON_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidTransport(t *testing.T) {
	resetArgs(t, "--transport", "carrier-pigeon")
	t.Setenv("BREWMON_CONFIG", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestInvalidAPIURL(t *testing.T) {
	resetArgs(t, "--api-url", "ftp://brewhost/api")
	t.Setenv("BREWMON_CONFIG", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidAPIURL))
}

func TestInvalidCommand(t *testing.T) {
	resetArgs(t, "--command", "explode")
	t.Setenv("BREWMON_CONFIG", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLogLevelFlag(t *testing.T) {
	resetArgs(t, "--log-level", "debug")
	t.Setenv("BREWMON_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}
