// Package pipeline implements background incident post-processing: the
// coverage check, severity reclassification, and the confidence-gated
// escalation decision, each recorded on the incident timeline.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/assuralabs/assura/internal/extraction"
	"github.com/assuralabs/assura/internal/incidents"
)

// Store is the persistence surface the processor needs.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*incidents.Incident, error)
	SetStatus(ctx context.Context, id uuid.UUID, status incidents.Status) error
	SaveExtraction(ctx context.Context, id uuid.UUID, result extraction.Result) error
	AppendEvent(ctx context.Context, id uuid.UUID, eventType string, details map[string]any) error
}

// Policy configures the processing decisions.
type Policy struct {
	// Extraction carries the escalation threshold and critical fields.
	Extraction extraction.Policy

	// HighSeverityBelow forces severity to high when confidence drops under
	// it. Low-confidence incidents are treated as higher risk.
	HighSeverityBelow float64

	// CoveredTypes are the claim categories the carrier covers, matched
	// loosely by substring against the extracted incident type.
	CoveredTypes []string
}

// DefaultPolicy mirrors the carrier's standing intake rules.
func DefaultPolicy() Policy {
	return Policy{
		Extraction:        extraction.DefaultPolicy(),
		HighSeverityBelow: 0.4,
		CoveredTypes: []string{
			"car_accident",
			"auto_accident",
			"vehicle_accident",
			"property_damage",
			"theft",
			"vandalism",
			"water_damage",
			"fire_damage",
			"wind_damage",
		},
	}
}

// Processor drives one incident through post-processing.
type Processor struct {
	store    Store
	notifier Notifier
	policy   Policy
	logger   *slog.Logger
}

func NewProcessor(store Store, notifier Notifier, policy Policy, logger *slog.Logger) *Processor {
	return &Processor{
		store:    store,
		notifier: notifier,
		policy:   policy,
		logger:   logger.With("system", "pipeline"),
	}
}

// Process runs post-processing for one incident. Failures never propagate to
// the dispatch pool: any error or panic escalates the incident with a
// processing_error event and is logged.
func (p *Processor) Process(ctx context.Context, id uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(ctx, id, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := p.run(ctx, id); err != nil {
		p.fail(ctx, id, err)
	}
}

func (p *Processor) run(ctx context.Context, id uuid.UUID) error {
	incident, err := p.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load incident: %w", err)
	}

	if err := p.store.SetStatus(ctx, id, incidents.StatusProcessing); err != nil {
		return err
	}
	if err := p.store.AppendEvent(ctx, id, incidents.EventProcessingStarted, nil); err != nil {
		return err
	}

	result := incident.ExtractedData

	covered, incidentType := p.checkCoverage(result)
	if !covered {
		if err := p.store.AppendEvent(ctx, id, incidents.EventCoverageDenied, map[string]any{
			"incident_type": incidentType,
			"reason":        "incident type not in covered categories",
		}); err != nil {
			return err
		}
		p.logger.Info("coverage denied", "id", id, "incident_type", incidentType)
		return p.store.SetStatus(ctx, id, incidents.StatusEscalated)
	}

	if err := p.store.AppendEvent(ctx, id, incidents.EventCoverageVerified, map[string]any{
		"incident_type": incidentType,
	}); err != nil {
		return err
	}

	if result.Confidence < p.policy.HighSeverityBelow && result.Severity != extraction.SeverityHigh {
		old := result.Severity
		result.Severity = extraction.SeverityHigh

		if err := p.store.AppendEvent(ctx, id, incidents.EventSeverityUpdated, map[string]any{
			"old_severity": string(old),
			"new_severity": string(result.Severity),
			"confidence":   result.Confidence,
		}); err != nil {
			return err
		}
	}

	if reasons := p.escalationReasons(result); len(reasons) > 0 {
		if err := p.store.AppendEvent(ctx, id, incidents.EventEscalated, map[string]any{
			"reasons":    reasons,
			"confidence": result.Confidence,
		}); err != nil {
			return err
		}
		if err := p.store.SaveExtraction(ctx, id, result); err != nil {
			return err
		}
		if err := p.store.SetStatus(ctx, id, incidents.StatusEscalated); err != nil {
			return err
		}

		incident.ExtractedData = result
		if err := p.notifier.NotifyEscalation(ctx, incident, reasons); err != nil {
			p.logger.Warn("escalation notification failed", "id", id, "error", err)
		}

		p.logger.Info("incident escalated", "id", id, "reasons", reasons)
		return nil
	}

	if err := p.store.AppendEvent(ctx, id, incidents.EventFollowUpTriggered, map[string]any{
		"severity": string(result.Severity),
	}); err != nil {
		return err
	}
	if err := p.store.SaveExtraction(ctx, id, result); err != nil {
		return err
	}
	if err := p.store.SetStatus(ctx, id, incidents.StatusVerified); err != nil {
		return err
	}
	if err := p.store.AppendEvent(ctx, id, incidents.EventProcessingCompleted, nil); err != nil {
		return err
	}

	p.logger.Info("incident verified", "id", id, "severity", result.Severity)
	return nil
}

// checkCoverage matches the extracted incident type against the
// covered-category list. A type is covered when it contains a covered
// category; a bare fragment like "accident" is not.
func (p *Processor) checkCoverage(result extraction.Result) (bool, string) {
	if result.IncidentType == nil || *result.IncidentType == "" {
		return false, ""
	}

	incidentType := strings.ToLower(strings.TrimSpace(*result.IncidentType))
	for _, covered := range p.policy.CoveredTypes {
		if strings.Contains(incidentType, covered) {
			return true, incidentType
		}
	}
	return false, incidentType
}

// escalationReasons returns why an incident needs a human, empty when it
// does not. Escalation triggers on low confidence, the review flag, or any
// missing critical field.
func (p *Processor) escalationReasons(result extraction.Result) []string {
	var reasons []string

	if result.Confidence < p.policy.Extraction.MinConfidence {
		reasons = append(reasons, "low_confidence")
	}
	if result.NeedsHuman {
		reasons = append(reasons, "needs_human_review")
	}
	for _, field := range p.policy.Extraction.CriticalFields {
		if !result.FieldPresent(field) {
			reasons = append(reasons, "missing_"+field)
		}
	}

	return reasons
}

// fail escalates the incident after an unexpected processing error. Best
// effort: the error is logged even when the writes themselves fail.
func (p *Processor) fail(ctx context.Context, id uuid.UUID, err error) {
	p.logger.Error("incident processing failed", "id", id, "error", err)

	if evErr := p.store.AppendEvent(ctx, id, incidents.EventProcessingError, map[string]any{
		"error": err.Error(),
	}); evErr != nil {
		p.logger.Error("failed to record processing error", "id", id, "error", evErr)
	}

	if stErr := p.store.SetStatus(ctx, id, incidents.StatusEscalated); stErr != nil {
		p.logger.Error("failed to escalate after error", "id", id, "error", stErr)
	}
}
