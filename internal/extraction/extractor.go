package extraction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/assuralabs/assura/internal/evidence"
	"github.com/assuralabs/assura/internal/llm"
	"github.com/assuralabs/assura/pkg/formatting"
)

// Extractor runs structured extraction against a completion provider.
type Extractor struct {
	provider llm.Provider
	policy   Policy
	logger   *slog.Logger
}

func NewExtractor(provider llm.Provider, policy Policy, logger *slog.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		policy:   policy,
		logger:   logger.With("system", "extraction"),
	}
}

func (e *Extractor) Policy() Policy {
	return e.policy
}

// Extract prompts the provider with the pseudonymized narrative and optional
// evidence, then parses and validates the response. An unparseable response
// degrades to the safe default; a transport failure propagates to the caller.
// Results that fail policy validation are returned flagged for human review,
// never discarded.
func (e *Extractor) Extract(ctx context.Context, narrative string, agg *evidence.Aggregate) (Result, error) {
	prompt := buildPrompt(narrative, agg)

	raw, err := e.provider.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("extraction request failed: %w", err)
	}

	result, err := formatting.Parse[Result](raw)
	if err != nil {
		e.logger.Warn("unparseable model response, using safe default", "error", err)
		return SafeDefault(), nil
	}

	if result.PeopleInvolved == nil {
		result.PeopleInvolved = []string{}
	}
	if result.DocumentsDetected == nil {
		result.DocumentsDetected = []string{}
	}

	if !Validate(&result, e.policy) {
		e.logger.Info(
			"extraction failed validation, flagging for review",
			"confidence", result.Confidence,
			"severity", result.Severity,
		)
		result.NeedsHuman = true
	}

	return result, nil
}
