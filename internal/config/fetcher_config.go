package config

import "time"

// FetcherConfig defines configuration for the specification fetcher.
type FetcherConfig struct {
	TimeoutSeconds      int           `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	Timeout             time.Duration `json:"-" yaml:"-"`
	UserAgent           string        `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	MaxContentSize      int           `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1"`
	EnableHTTP2         bool          `json:"enable_http2" yaml:"enable_http2"`
	InsecureSkipVerify  bool          `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	DialTimeout         time.Duration `json:"-" yaml:"-"`
	MaxIdleConns        int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host,omitempty" yaml:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout     time.Duration `json:"-" yaml:"-"`
}

// NewDefaultFetcherConfig creates default fetcher configuration.
func NewDefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		TimeoutSeconds:      30,
		Timeout:             30 * time.Second,
		UserAgent:           "specwatch/1.0",
		MaxContentSize:      10 * 1024 * 1024, // 10MB
		EnableHTTP2:         true,
		InsecureSkipVerify:  false,
		DialTimeout:         10 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Normalize derives duration fields from their serialized second counts.
func (fc *FetcherConfig) Normalize() {
	if fc.TimeoutSeconds > 0 {
		fc.Timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}
	if fc.Timeout <= 0 {
		fc.Timeout = 30 * time.Second
	}
	if fc.DialTimeout <= 0 {
		fc.DialTimeout = 10 * time.Second
	}
	if fc.IdleConnTimeout <= 0 {
		fc.IdleConnTimeout = 90 * time.Second
	}
	if fc.UserAgent == "" {
		fc.UserAgent = "specwatch/1.0"
	}
	if fc.MaxContentSize <= 0 {
		fc.MaxContentSize = 10 * 1024 * 1024
	}
}
