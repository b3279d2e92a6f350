// Package extraction turns a pseudonymized incident narrative plus aggregated
// attachment evidence into a validated, confidence-scored structured record.
package extraction

// Severity classifies incident impact.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// Result is the structured extraction of one incident. Nullable narrative
// fields use pointers so an absent value is distinguishable from an empty
// string.
type Result struct {
	IncidentType      *string  `json:"incident_type"`
	Severity          Severity `json:"severity"`
	Date              *string  `json:"date"`
	Location          *string  `json:"location"`
	PeopleInvolved    []string `json:"people_involved"`
	DocumentsDetected []string `json:"documents_detected"`
	Confidence        float64  `json:"confidence"`
	NeedsHuman        bool     `json:"needs_human"`
}

// SafeDefault is the fallback result for an unparseable model response:
// empty fields, zero confidence, flagged for human review.
func SafeDefault() Result {
	return Result{
		Severity:          SeverityMedium,
		PeopleInvolved:    []string{},
		DocumentsDetected: []string{},
		NeedsHuman:        true,
	}
}
