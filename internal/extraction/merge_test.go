package extraction

import (
	"reflect"
	"testing"

	"github.com/assuralabs/assura/internal/evidence"
)

func TestMergeNarrativeFieldsFromText(t *testing.T) {
	text := validResult()
	ev := Result{
		DocumentsDetected: []string{"receipt"},
		Confidence:        0.95,
	}

	merged := Merge(text, ev)

	if *merged.IncidentType != *text.IncidentType {
		t.Error("incident_type must come from the text result")
	}
	if *merged.Date != *text.Date || *merged.Location != *text.Location {
		t.Error("date and location must come from the text result")
	}
	if merged.Severity != text.Severity {
		t.Error("severity must come from the text result")
	}
	if !reflect.DeepEqual(merged.PeopleInvolved, text.PeopleInvolved) {
		t.Error("people_involved must come from the text result")
	}
}

func TestMergeDocumentUnion(t *testing.T) {
	text := Result{DocumentsDetected: []string{"police_report", "receipt"}}
	ev := Result{DocumentsDetected: []string{"receipt", "license"}}

	merged := Merge(text, ev)

	want := []string{"police_report", "receipt", "license"}
	if !reflect.DeepEqual(merged.DocumentsDetected, want) {
		t.Errorf("expected union %v, got %v", want, merged.DocumentsDetected)
	}
}

func TestMergeConfidenceMax(t *testing.T) {
	tests := []struct {
		name     string
		text, ev float64
		want     float64
	}{
		{"evidence higher", 0.6, 0.8, 0.8},
		{"text higher", 0.9, 0.7, 0.9},
		{"zero evidence ignored", 0.5, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge(Result{Confidence: tt.text}, Result{Confidence: tt.ev})
			if merged.Confidence != tt.want {
				t.Errorf("expected %f, got %f", tt.want, merged.Confidence)
			}
		})
	}
}

func TestMergeNeedsHumanOR(t *testing.T) {
	if !Merge(Result{NeedsHuman: true}, Result{}).NeedsHuman {
		t.Error("text flag must survive merge")
	}
	if !Merge(Result{}, Result{NeedsHuman: true}).NeedsHuman {
		t.Error("evidence flag must survive merge")
	}
	if Merge(Result{}, Result{}).NeedsHuman {
		t.Error("no flags set must stay unset")
	}
}

func TestFromEvidence(t *testing.T) {
	agg := &evidence.Aggregate{
		DocumentsDetected: []string{"police_report"},
		Confidence:        0.7,
		AttachmentCount:   2,
	}

	r := FromEvidence(agg)

	if r.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7, got %f", r.Confidence)
	}
	if !reflect.DeepEqual(r.DocumentsDetected, []string{"police_report"}) {
		t.Errorf("unexpected documents: %v", r.DocumentsDetected)
	}
	if r.IncidentType != nil {
		t.Error("evidence carries no narrative fields")
	}
}

func TestFromEvidenceNil(t *testing.T) {
	r := FromEvidence(nil)
	if r.Confidence != 0 || r.DocumentsDetected != nil {
		t.Errorf("nil aggregate must produce zero result, got %+v", r)
	}
}
