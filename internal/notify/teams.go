package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TeamsSink posts messages to a Microsoft Teams incoming webhook.
type TeamsSink struct {
	webhookURL string
	httpClient *http.Client
}

func NewTeamsSink(webhookURL string) *TeamsSink {
	return &TeamsSink{
		webhookURL: strings.TrimSpace(webhookURL),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled is false when no webhook URL is configured.
func (s *TeamsSink) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

// Send delivers msg once. An unconfigured sink silently accepts everything.
func (s *TeamsSink) Send(ctx context.Context, msg Message) error {
	if !s.Enabled() {
		return nil
	}

	payload, err := json.Marshal(msg.card())
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status: %d", resp.StatusCode)
	}
	return nil
}
