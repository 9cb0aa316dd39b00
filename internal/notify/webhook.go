package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/theblitlabs/starknet-env/internal/telemetry"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

// WebhookNotifier posts notifications to a host endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, channel, level, message string) error {
	log := logger.WithComponent("webhook")
	start := time.Now()

	body, err := json.Marshal(Message{Channel: channel, Level: level, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		telemetry.RecordWebhook(level, "error", time.Since(start))
		log.Error().Err(err).Str("url", w.url).Msg("Notification failed")
		return fmt.Errorf("notification failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		telemetry.RecordWebhook(level, "error", time.Since(start))
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	telemetry.RecordWebhook(level, "success", time.Since(start))
	log.Debug().Str("level", level).Msg("Notification sent")
	return nil
}
