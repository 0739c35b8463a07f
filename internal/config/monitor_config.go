package config

import "time"

// MonitorConfig defines configuration for the monitoring service.
type MonitorConfig struct {
	Enabled              bool     `json:"enabled" yaml:"enabled"`
	CycleIntervalSeconds int      `json:"cycle_interval_seconds,omitempty" yaml:"cycle_interval_seconds,omitempty" validate:"omitempty,min=1"`
	MaxConcurrentChecks  int      `json:"max_concurrent_checks,omitempty" yaml:"max_concurrent_checks,omitempty" validate:"omitempty,min=1"`
	BatchSize            int      `json:"batch_size,omitempty" yaml:"batch_size,omitempty" validate:"omitempty,min=1"`
	MaxFetchRetries      int      `json:"max_fetch_retries,omitempty" yaml:"max_fetch_retries,omitempty" validate:"omitempty,min=0"`
	RetryBaseDelayMs     int      `json:"retry_base_delay_ms,omitempty" yaml:"retry_base_delay_ms,omitempty" validate:"omitempty,min=1"`
	SeedTargets          []string `json:"seed_targets,omitempty" yaml:"seed_targets,omitempty" validate:"omitempty,dive,url"`
	DefaultFrequency     string   `json:"default_frequency,omitempty" yaml:"default_frequency,omitempty" validate:"omitempty,frequency"`
}

// CycleInterval returns the scheduling-cycle tick interval.
func (mc MonitorConfig) CycleInterval() time.Duration {
	if mc.CycleIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(mc.CycleIntervalSeconds) * time.Second
}

// RetryBaseDelay returns the initial delay of the fetch retry backoff.
func (mc MonitorConfig) RetryBaseDelay() time.Duration {
	if mc.RetryBaseDelayMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(mc.RetryBaseDelayMs) * time.Millisecond
}

// NewDefaultMonitorConfig creates default monitor configuration.
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:              true,
		CycleIntervalSeconds: 60,
		MaxConcurrentChecks:  5,
		BatchSize:            100,
		MaxFetchRetries:      2,
		RetryBaseDelayMs:     500,
		DefaultFrequency:     "1h",
	}
}
