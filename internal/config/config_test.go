package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	assert.Equal(t, "automated", cfg.Mode)
	assert.True(t, cfg.MonitorConfig.Enabled)
	assert.Equal(t, 5, cfg.MonitorConfig.MaxConcurrentChecks)
	assert.Equal(t, "1h", cfg.MonitorConfig.DefaultFrequency)
	assert.Equal(t, time.Minute, cfg.MonitorConfig.CycleInterval())
	assert.Equal(t, 30*time.Second, cfg.FetcherConfig.Timeout)
	assert.Equal(t, "specwatch/1.0", cfg.FetcherConfig.UserAgent)
	assert.Equal(t, 50, cfg.StorageConfig.MaxSnapshotsPerTarget)
	assert.Equal(t, "info", cfg.LogConfig.LogLevel)
	assert.False(t, cfg.NotificationConfig.Enabled)
}

func TestLoadGlobalConfig_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadGlobalConfig("")
	require.NoError(t, err)
	assert.Equal(t, "automated", cfg.Mode)
}

func TestLoadGlobalConfig_MissingFile(t *testing.T) {
	_, err := LoadGlobalConfig("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadGlobalConfig_YAMLOverridesDefaults(t *testing.T) {
	content := `
mode: once
monitor_config:
  cycle_interval_seconds: 30
  max_concurrent_checks: 2
  default_frequency: "15m"
fetcher_config:
  timeout_seconds: 5
log_config:
  log_level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadGlobalConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "once", cfg.Mode)
	assert.Equal(t, 30*time.Second, cfg.MonitorConfig.CycleInterval())
	assert.Equal(t, 2, cfg.MonitorConfig.MaxConcurrentChecks)
	assert.Equal(t, "15m", cfg.MonitorConfig.DefaultFrequency)
	assert.Equal(t, 5*time.Second, cfg.FetcherConfig.Timeout, "timeout_seconds must be normalized into the duration")
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	// Untouched sections keep their defaults.
	assert.Equal(t, 50, cfg.StorageConfig.MaxSnapshotsPerTarget)
}

func TestLoadGlobalConfig_JSON(t *testing.T) {
	content := `{"mode": "once", "monitor_config": {"batch_size": 10}}`
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadGlobalConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "once", cfg.Mode)
	assert.Equal(t, 10, cfg.MonitorConfig.BatchSize)
}

func TestLoadGlobalConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: [unclosed"), 0644))

	_, err := LoadGlobalConfig(path)
	assert.Error(t, err)
}

func TestValidateConfig_Defaults(t *testing.T) {
	assert.NoError(t, ValidateConfig(NewDefaultGlobalConfig()))
}

func TestValidateConfig_InvalidMode(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.Mode = "continuous"
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfig_InvalidLogLevel(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.LogConfig.LogLevel = "verbose"
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfig_InvalidFrequency(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.MonitorConfig.DefaultFrequency = "2h"
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfig_InvalidSeedURL(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.MonitorConfig.SeedTargets = []string{"not a url"}
	assert.Error(t, ValidateConfig(cfg))
}

func TestMonitorConfig_Fallbacks(t *testing.T) {
	mc := MonitorConfig{}
	assert.Equal(t, time.Minute, mc.CycleInterval())
	assert.Equal(t, 500*time.Millisecond, mc.RetryBaseDelay())

	mc.CycleIntervalSeconds = 10
	mc.RetryBaseDelayMs = 50
	assert.Equal(t, 10*time.Second, mc.CycleInterval())
	assert.Equal(t, 50*time.Millisecond, mc.RetryBaseDelay())
}

func TestFetcherConfig_Normalize(t *testing.T) {
	fc := FetcherConfig{TimeoutSeconds: 7}
	fc.Normalize()

	assert.Equal(t, 7*time.Second, fc.Timeout)
	assert.Equal(t, 10*time.Second, fc.DialTimeout)
	assert.Equal(t, "specwatch/1.0", fc.UserAgent)
	assert.Equal(t, 10*1024*1024, fc.MaxContentSize)
}
