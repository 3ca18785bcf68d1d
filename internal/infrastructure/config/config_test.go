package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "shipman.db", cfg.Database.Path)
	assert.Equal(t, "https://shippingmanager.cc", cfg.Bridge.GameURL)
	assert.Equal(t, 1100, cfg.Bridge.Window.Width)
	assert.Equal(t, 180, cfg.Controller.ReadyMaxAttempts)
	assert.Equal(t, "localhost:9090", cfg.Metrics.Address())
	assert.False(t, cfg.Controller.HasCredentials())
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	// Arrange
	path := writeFile(t, "config.yaml", `
bridge:
  browser: firefox
  headless: true
  rate_limit:
    per_second: 2
controller:
  login_max_attempts: 30
  departure_pacing: 2s
metrics:
  enabled: true
  port: 9300
`)
	t.Setenv("SM_CONTROLLER_EMAIL", "captain@example.com")
	t.Setenv("SM_CONTROLLER_PASSWORD", "hunter2")
	t.Setenv("SM_LOGGING_LEVEL", "debug")

	// Act
	cfg, err := LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "firefox", cfg.Bridge.Browser)
	assert.True(t, cfg.Bridge.Headless)
	assert.Equal(t, 2.0, cfg.Bridge.RateLimit.PerSecond)
	assert.Equal(t, 4, cfg.Bridge.RateLimit.Burst, "unset fields keep their defaults")
	assert.Equal(t, 30, cfg.Controller.LoginMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Controller.DeparturePacing)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9300, cfg.Metrics.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Controller.HasCredentials())
}

func TestLoadConfig_DatabaseURLSelectsPostgres(t *testing.T) {
	path := writeFile(t, "config.yaml", "logging:\n  level: warn\n")
	t.Setenv("DATABASE_URL", "postgresql://shipman:secret@db:5432/shipman")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgresql://shipman:secret@db:5432/shipman", cfg.Database.URL)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"unknown browser", "bridge:\n  browser: lynx\n", "Config.Bridge.Browser"},
		{"bad level", "logging:\n  level: chatty\n", "Config.Logging.Level"},
		{"file output without path", "logging:\n  output: file\n", "Config.Logging.FilePath"},
		{"bad email", "controller:\n  email: not-an-email\n", "Config.Controller.Email"},
		{"relative metrics path", "metrics:\n  path: metrics\n", "Config.Metrics.Path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "config.yaml", tt.content))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "config.yaml", "bridge: [unterminated"))

	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadConfigOrDefault_FallsBack(t *testing.T) {
	cfg := LoadConfigOrDefault(writeFile(t, "config.yaml", "bridge:\n  browser: lynx\n"))

	assert.Equal(t, "chromium", cfg.Bridge.Browser)
}

func TestUserConfigHandler_RoundTrip(t *testing.T) {
	h := NewUserConfigHandlerAt(filepath.Join(t.TempDir(), "nested", "cli.json"))

	empty, err := h.Load()
	require.NoError(t, err)
	assert.Empty(t, empty.SocketPath)

	require.NoError(t, h.SetSocketPath("/run/shipman.sock"))

	loaded, err := h.Load()
	require.NoError(t, err)
	assert.Equal(t, "/run/shipman.sock", loaded.SocketPath)
}
