package extraction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/assuralabs/assura/internal/evidence"
)

type stubProvider struct {
	response string
	err      error
	prompt   string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Available(context.Context) bool { return true }

func (p *stubProvider) Complete(_ context.Context, prompt string) (string, error) {
	p.prompt = prompt
	return p.response, p.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const goodResponse = `{
	"incident_type": "car_accident",
	"severity": "medium",
	"date": "2025-01-15",
	"location": "parking lot",
	"people_involved": ["other driver"],
	"documents_detected": [],
	"confidence": 0.85,
	"needs_human": false
}`

func TestExtractParsesValidResponse(t *testing.T) {
	provider := &stubProvider{response: goodResponse}
	e := NewExtractor(provider, DefaultPolicy(), discard())

	result, err := e.Extract(context.Background(), "my car was hit", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IncidentType == nil || *result.IncidentType != "car_accident" {
		t.Errorf("unexpected incident_type: %v", result.IncidentType)
	}
	if result.Confidence != 0.85 {
		t.Errorf("unexpected confidence: %f", result.Confidence)
	}
	if result.NeedsHuman {
		t.Error("valid result should not be flagged")
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	provider := &stubProvider{response: "```json\n" + goodResponse + "\n```"}
	e := NewExtractor(provider, DefaultPolicy(), discard())

	result, err := e.Extract(context.Background(), "story", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IncidentType == nil || *result.IncidentType != "car_accident" {
		t.Errorf("fenced response should still parse, got %+v", result)
	}
}

func TestExtractSafeDefaultOnGarbage(t *testing.T) {
	provider := &stubProvider{response: "I could not process this request."}
	e := NewExtractor(provider, DefaultPolicy(), discard())

	result, err := e.Extract(context.Background(), "story", nil)
	if err != nil {
		t.Fatalf("unparseable response must be recoverable, got error: %v", err)
	}

	if !result.NeedsHuman {
		t.Error("safe default must flag human review")
	}
	if result.Confidence != 0 {
		t.Errorf("safe default confidence must be 0, got %f", result.Confidence)
	}
}

func TestExtractPropagatesTransportError(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	e := NewExtractor(provider, DefaultPolicy(), discard())

	if _, err := e.Extract(context.Background(), "story", nil); err == nil {
		t.Fatal("transport failure must propagate")
	}
}

func TestExtractFlagsFailedValidation(t *testing.T) {
	low := strings.Replace(goodResponse, "0.85", "0.3", 1)
	provider := &stubProvider{response: low}
	e := NewExtractor(provider, DefaultPolicy(), discard())

	result, err := e.Extract(context.Background(), "story", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.NeedsHuman {
		t.Error("low-confidence result must be flagged, not discarded")
	}
	if result.Confidence != 0.3 {
		t.Errorf("flagged result must keep its values, got %f", result.Confidence)
	}
}

func TestExtractPromptCarriesNarrativeAndEvidence(t *testing.T) {
	provider := &stubProvider{response: goodResponse}
	e := NewExtractor(provider, DefaultPolicy(), discard())

	agg := &evidence.Aggregate{
		AttachmentCount:   1,
		DocumentsDetected: []string{"police_report"},
		ExtractedText:     "INCIDENT REPORT 4411",
	}

	if _, err := e.Extract(context.Background(), "hit by [PHONE_1]", agg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"hit by [PHONE_1]", "police_report", "INCIDENT REPORT 4411"} {
		if !strings.Contains(provider.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
