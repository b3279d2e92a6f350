package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/assuralabs/assura/internal/incidents"
)

// Notifier delivers escalation alerts to the adjuster side.
type Notifier interface {
	NotifyEscalation(ctx context.Context, incident *incidents.Incident, reasons []string) error
}

// LogNotifier records escalations in the service log. Used when no webhook
// endpoint is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("system", "notify")}
}

func (n *LogNotifier) NotifyEscalation(_ context.Context, incident *incidents.Incident, reasons []string) error {
	n.logger.Warn(
		"incident escalated for human review",
		"id", incident.ID,
		"owner", incident.OwnerID,
		"severity", incident.ExtractedData.Severity,
		"reasons", reasons,
	)
	return nil
}

// WebhookNotifier posts escalation payloads to a configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewWebhookNotifier(url string, timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("system", "notify"),
	}
}

type escalationPayload struct {
	IncidentID string   `json:"incident_id"`
	OwnerID    string   `json:"owner_id"`
	Severity   string   `json:"severity"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

func (n *WebhookNotifier) NotifyEscalation(ctx context.Context, incident *incidents.Incident, reasons []string) error {
	payload := escalationPayload{
		IncidentID: incident.ID.String(),
		OwnerID:    incident.OwnerID,
		Severity:   string(incident.ExtractedData.Severity),
		Confidence: incident.ExtractedData.Confidence,
		Reasons:    reasons,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode escalation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build escalation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver escalation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("escalation endpoint returned %d", resp.StatusCode)
	}

	n.logger.Info("escalation delivered", "id", incident.ID, "endpoint", n.url)
	return nil
}
