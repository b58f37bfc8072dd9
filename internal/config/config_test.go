package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"
  base_url: "https://phishsim.example.com"

tracking:
  port: 9091

database:
  url: "postgres://localhost/phishsim_test?sslmode=disable"

webhooks:
  platform_url: "https://hooks.example.com/platform"
  timeout_seconds: 3
  queue_size: 64

export:
  token_ttl_seconds: 300
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://phishsim.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 9091, cfg.Tracking.Port)
	assert.Equal(t, "https://hooks.example.com/platform", cfg.Webhooks.PlatformURL)
	assert.Equal(t, 3, cfg.Webhooks.TimeoutSeconds)
	assert.Equal(t, 64, cfg.Webhooks.QueueSize)
}

func TestLoadDefaults(t *testing.T) {
	configPath := writeConfig(t, `
database:
  url: "postgres://localhost/phishsim?sslmode=disable"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8081, cfg.Tracking.Port)
	assert.Equal(t, 5, cfg.Webhooks.TimeoutSeconds)
	assert.Equal(t, 1024, cfg.Webhooks.QueueSize)
	assert.Equal(t, 300, cfg.Export.TokenTTLSeconds)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "phishsim_session", cfg.Auth.CookieName)
}

func TestLoadValidation(t *testing.T) {
	configPath := writeConfig(t, `
webhooks:
  timeout_seconds: 120
`)
	_, err := Load(configPath)
	assert.Error(t, err)

	configPath = writeConfig(t, `
export:
  token_ttl_seconds: 5
`)
	_, err = Load(configPath)
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
database:
  url: "postgres://localhost/original"
`)

	t.Setenv("DATABASE_URL", "postgres://localhost/overridden")
	t.Setenv("PLATFORM_WEBHOOK_URL", "https://hooks.example.com/env")
	t.Setenv("ADMIN_EMAILS", "alice@corp.example, bob@corp.example")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/overridden", cfg.Database.URL)
	assert.Equal(t, "https://hooks.example.com/env", cfg.Webhooks.PlatformURL)
	assert.Equal(t, []string{"alice@corp.example", "bob@corp.example"}, cfg.Auth.AdminEmails)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
