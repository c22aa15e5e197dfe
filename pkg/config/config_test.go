package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/error-telemetry/pkg/event"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telemetry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REDIS_URL", "PORT", "LOG_LEVEL", "SENTRY_DSN", "TELEMETRY_REMOTE_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1000, cfg.Telemetry.MaxLogSize)
	assert.Equal(t, 7, cfg.Telemetry.Retention.Days)
	assert.Equal(t, int64(10*1024*1024), cfg.Telemetry.Retention.MaxSize)
	assert.Equal(t, event.SeverityHigh, cfg.Telemetry.AutoReport.Threshold)
	assert.Equal(t, 5, cfg.Telemetry.AutoReport.MaxAutoReports)
	assert.Equal(t, 3, cfg.Telemetry.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Telemetry.Retry.BaseDelay)
	assert.True(t, cfg.Telemetry.Rehydrate)
}

func TestLoad_YAMLOverridesAndExpandsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_SENTRY_DSN", "https://key@sentry.example.com/1")

	path := writeConfig(t, `
app_version: 2.3.4
telemetry:
  max_log_size: 200
  retention:
    days: 2
    max_size: 4096
  log_levels: [critical, high]
  enable_remote_logging: false
  auto_report:
    enabled: true
    threshold: critical
    max_auto_reports: 2
  retry:
    max_retries: 5
    base_delay: 250ms
    max_delay: 10s
server:
  port: 9090
redis:
  addr: redis:6379
  namespace: checkout
sentry:
  dsn: ${TEST_SENTRY_DSN}
remote:
  url: https://collector.example.com/v1/events
  headers:
    Authorization: Bearer abc
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "2.3.4", cfg.AppVersion)
	assert.Equal(t, 200, cfg.Telemetry.MaxLogSize)
	assert.Equal(t, 2, cfg.Telemetry.Retention.Days)
	assert.Equal(t, int64(4096), cfg.Telemetry.Retention.MaxSize)
	assert.Equal(t, []event.Severity{event.SeverityCritical, event.SeverityHigh}, cfg.Telemetry.LogLevels)
	assert.False(t, cfg.Telemetry.EnableRemoteLogging)
	assert.True(t, cfg.Telemetry.EnableConsoleLogging, "unset keys keep defaults")
	assert.Equal(t, event.SeverityCritical, cfg.Telemetry.AutoReport.Threshold)
	assert.Equal(t, 2, cfg.Telemetry.AutoReport.MaxAutoReports)
	assert.Equal(t, 5, cfg.Telemetry.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Telemetry.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Telemetry.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Telemetry.Retry.Multiplier, "unset keys keep defaults")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "checkout", cfg.Redis.Namespace)
	assert.Equal(t, "https://key@sentry.example.com/1", cfg.Sentry.DSN)
	assert.Equal(t, "Bearer abc", cfg.Remote.Headers["Authorization"])
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "cache:6379")
	t.Setenv("PORT", "7070")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "telemetry: [unclosed"},
		{name: "invalid log size", content: "telemetry:\n  max_log_size: 0\n"},
		{name: "unknown severity", content: "telemetry:\n  log_levels: [loud]\n"},
		{name: "invalid port", content: "server:\n  port: 70000\n"},
	}

	clearEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidPortEnv(t *testing.T) {
	t.Setenv("PORT", "http")
	_, err := Load("")
	assert.Error(t, err)
}
