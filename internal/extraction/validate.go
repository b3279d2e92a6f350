package extraction

// Policy gates extraction results before they reach the escalation pipeline.
type Policy struct {
	MinConfidence  float64
	CriticalFields []string
}

// DefaultPolicy requires 0.6 confidence and the identity of the incident.
func DefaultPolicy() Policy {
	return Policy{
		MinConfidence:  0.6,
		CriticalFields: []string{"incident_type", "date", "location"},
	}
}

// Validate reports whether a result satisfies the policy: severity in its
// enum, confidence inside [0,1] and at or above the minimum, and every
// critical field present. Callers flag failing results for human review
// rather than discarding them.
func Validate(result *Result, policy Policy) bool {
	if !result.Severity.Valid() {
		return false
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return false
	}
	for _, field := range policy.CriticalFields {
		if !result.FieldPresent(field) {
			return false
		}
	}
	return result.Confidence >= policy.MinConfidence
}

// FieldPresent reports whether the named field carries a usable value.
// Unknown field names report absent, which keeps misconfigured critical
// fields on the escalation side.
func (r *Result) FieldPresent(name string) bool {
	switch name {
	case "incident_type":
		return r.IncidentType != nil && *r.IncidentType != ""
	case "date":
		return r.Date != nil && *r.Date != ""
	case "location":
		return r.Location != nil && *r.Location != ""
	case "severity":
		return r.Severity.Valid()
	case "people_involved":
		return len(r.PeopleInvolved) > 0
	case "documents_detected":
		return len(r.DocumentsDetected) > 0
	case "confidence":
		return r.Confidence > 0
	default:
		return false
	}
}
