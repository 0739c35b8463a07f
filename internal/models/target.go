package models

import (
	"time"
)

// HealthStatus is the health state of a monitored target.
type HealthStatus string

const (
	// HealthHealthy means the last check completed without error.
	HealthHealthy HealthStatus = "healthy"
	// HealthChecking means a check is currently in flight.
	HealthChecking HealthStatus = "checking"
	// HealthUnhealthy means an explicit connectivity test failed.
	HealthUnhealthy HealthStatus = "unhealthy"
	// HealthError means the last scheduled check failed.
	HealthError HealthStatus = "error"
)

// CheckFrequency is one of the fixed check-interval tokens.
type CheckFrequency string

const (
	Frequency5m  CheckFrequency = "5m"
	Frequency15m CheckFrequency = "15m"
	Frequency1h  CheckFrequency = "1h"
	Frequency6h  CheckFrequency = "6h"
	Frequency1d  CheckFrequency = "1d"
)

// DefaultCheckInterval is used when a target carries an unknown or missing
// frequency token.
const DefaultCheckInterval = time.Hour

// Interval maps the frequency token to its fixed duration. Unknown tokens
// fall back to DefaultCheckInterval.
func (f CheckFrequency) Interval() time.Duration {
	switch f {
	case Frequency5m:
		return 5 * time.Minute
	case Frequency15m:
		return 15 * time.Minute
	case Frequency1h:
		return time.Hour
	case Frequency6h:
		return 6 * time.Hour
	case Frequency1d:
		return 24 * time.Hour
	default:
		return DefaultCheckInterval
	}
}

// IsValid reports whether the token is one of the supported frequencies.
func (f CheckFrequency) IsValid() bool {
	switch f {
	case Frequency5m, Frequency15m, Frequency1h, Frequency6h, Frequency1d:
		return true
	default:
		return false
	}
}

// MonitoredTarget represents one tracked API specification source.
type MonitoredTarget struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	URL             string         `json:"url"`
	DocType         string         `json:"doc_type"`
	CurrentVersion  string         `json:"current_version"`
	Specification   SpecDocument   `json:"specification"`
	CheckFrequency  CheckFrequency `json:"check_frequency"`
	IsActive        bool           `json:"is_active"`
	HealthStatus    HealthStatus   `json:"health_status"`
	LastChecked     *time.Time     `json:"last_checked,omitempty"`
	LastHealthCheck *time.Time     `json:"last_health_check,omitempty"`
	LastError       string         `json:"last_error,omitempty"`
	ChangeCount     int            `json:"change_count"`
	OwnerID         string         `json:"owner_id"`
	Tags            []string       `json:"tags,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// IsDue reports whether the target's configured interval has elapsed since
// its last check. A never-checked target is always due.
func (t *MonitoredTarget) IsDue(now time.Time) bool {
	if t.LastChecked == nil {
		return true
	}
	return now.Sub(*t.LastChecked) >= t.CheckFrequency.Interval()
}
