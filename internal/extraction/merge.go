package extraction

import "github.com/assuralabs/assura/internal/evidence"

// FromEvidence lifts an aggregated evidence record into result shape so it
// can participate in merging. Evidence carries no narrative fields.
func FromEvidence(agg *evidence.Aggregate) Result {
	if agg == nil {
		return Result{}
	}
	return Result{
		DocumentsDetected: agg.DocumentsDetected,
		Confidence:        agg.Confidence,
	}
}

// Merge combines a text-derived result with an evidence-derived one.
// Narrative fields always come from the text result; evidence corroborates
// document detection and confidence only. Detected documents are unioned,
// confidence takes the maximum of the two (evidence contributes only when
// nonzero), and the human-review flag is the OR of both.
func Merge(text, evidence Result) Result {
	merged := text

	merged.DocumentsDetected = unionDocuments(text.DocumentsDetected, evidence.DocumentsDetected)

	if evidence.Confidence > 0 && evidence.Confidence > merged.Confidence {
		merged.Confidence = evidence.Confidence
	}

	merged.NeedsHuman = text.NeedsHuman || evidence.NeedsHuman

	return merged
}

func unionDocuments(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	union := make([]string, 0, len(a)+len(b))

	for _, docs := range [][]string{a, b} {
		for _, d := range docs {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				union = append(union, d)
			}
		}
	}
	return union
}
