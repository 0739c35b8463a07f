package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/aleister1102/specwatch/internal/config"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/rs/zerolog"
)

// WebhookNotifier posts change events as JSON to a configured webhook URL.
type WebhookNotifier struct {
	cfg        *config.NotificationConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// webhookPayload is the wire shape posted to the webhook.
type webhookPayload struct {
	TargetID        string            `json:"target_id"`
	TargetName      string            `json:"target_name"`
	TargetURL       string            `json:"target_url"`
	PreviousVersion string            `json:"previous_version"`
	NewVersion      string            `json:"new_version"`
	Summary         string            `json:"summary"`
	BreakingCount   int               `json:"breaking_count"`
	TotalChanges    int               `json:"total_changes"`
	DetectedAt      time.Time         `json:"detected_at"`
	ChangeSet       *models.ChangeSet `json:"change_set,omitempty"`
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(cfg *config.NotificationConfig, logger zerolog.Logger) (*WebhookNotifier, error) {
	if cfg.WebhookURL == "" {
		return nil, common.NewValidationError("webhook_url", cfg.WebhookURL, "webhook URL required when notifications enabled")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "WebhookNotifier").Logger(),
	}, nil
}

// NotifyChange posts the event to the webhook URL.
func (wn *WebhookNotifier) NotifyChange(ctx context.Context, event models.ChangeEvent) error {
	if wn.cfg.OnlyBreaking && event.ChangeSet.BreakingCount() == 0 {
		wn.logger.Debug().Str("target_id", event.TargetID).Msg("Skipping non-breaking change notification")
		return nil
	}

	payload := webhookPayload{
		TargetID:        event.TargetID,
		TargetName:      event.TargetName,
		TargetURL:       event.TargetURL,
		PreviousVersion: event.PreviousVersion,
		NewVersion:      event.NewVersion,
		Summary:         event.Summary,
		BreakingCount:   event.ChangeSet.BreakingCount(),
		TotalChanges:    len(event.ChangeSet.Changes),
		DetectedAt:      event.DetectedAt,
	}
	if wn.cfg.IncludeChangeSet {
		payload.ChangeSet = &event.ChangeSet
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return common.WrapError(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return common.WrapError(err, "failed to create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := wn.httpClient.Do(req)
	if err != nil {
		return common.NewNetworkError(wn.cfg.WebhookURL, "webhook delivery failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return common.NewHTTPError(resp.StatusCode, "webhook delivery rejected", wn.cfg.WebhookURL)
	}

	wn.logger.Info().
		Str("target_id", event.TargetID).
		Str("new_version", event.NewVersion).
		Msg("Change notification delivered")
	return nil
}
