package extraction

import (
	"fmt"
	"strings"

	"github.com/assuralabs/assura/internal/evidence"
)

const promptSchema = `{
  "incident_type": "short snake_case label such as car_accident, or null if unclear",
  "severity": "low, medium, or high",
  "date": "date of the incident as stated, ISO 8601 preferred, or null",
  "location": "where the incident occurred, or null",
  "people_involved": ["names or role descriptions mentioned, empty if none"],
  "documents_detected": ["document types referenced or attached, empty if none"],
  "confidence": 0.0,
  "needs_human": false
}`

// buildPrompt constructs the extraction instruction for one incident. The
// narrative is already pseudonymized; bracketed placeholder tokens must be
// carried through untouched.
func buildPrompt(narrative string, agg *evidence.Aggregate) string {
	var b strings.Builder

	b.WriteString("You are an insurance claim intake analyst. Extract structured incident information from the report below.\n\n")
	b.WriteString("Respond with ONLY a JSON object matching this schema, with no markdown fences and no commentary:\n\n")
	b.WriteString(promptSchema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Never invent values. Use null for unknown strings and empty arrays for unknown lists.\n")
	b.WriteString("- severity must be exactly one of: low, medium, high.\n")
	b.WriteString("- confidence is your overall certainty in the extraction, between 0 and 1.\n")
	b.WriteString("- Set needs_human to true if the report is ambiguous, contradictory, or incomplete.\n")
	b.WriteString("- Tokens like [EMAIL_1] or [PHONE_2] are redacted placeholders. Treat them as opaque values and copy them verbatim where relevant.\n")

	b.WriteString("\nIncident report:\n")
	b.WriteString(narrative)

	if agg != nil && agg.AttachmentCount > 0 {
		fmt.Fprintf(&b, "\n\nAttachment evidence (%d attachments analyzed):\n", agg.AttachmentCount)
		if len(agg.DocumentsDetected) > 0 {
			fmt.Fprintf(&b, "- Detected documents: %s\n", strings.Join(agg.DocumentsDetected, ", "))
		}
		if agg.ExtractedText != "" {
			fmt.Fprintf(&b, "- Extracted text:\n%s\n", agg.ExtractedText)
		}
	}

	return b.String()
}
