package config

// NotificationConfig defines configuration for change notifications.
type NotificationConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	WebhookURL       string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty" validate:"omitempty,url"`
	TimeoutSeconds   int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	OnlyBreaking     bool   `json:"only_breaking" yaml:"only_breaking"`
	IncludeChangeSet bool   `json:"include_change_set" yaml:"include_change_set"`
}

// NewDefaultNotificationConfig creates default notification configuration.
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		Enabled:          false,
		TimeoutSeconds:   10,
		OnlyBreaking:     false,
		IncludeChangeSet: true,
	}
}
