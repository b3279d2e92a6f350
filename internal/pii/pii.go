// Package pii detects and transforms personally identifiable information in
// free text. Pseudonymization is reversible through a per-call mapping so the
// original narrative can be shown back to its owner while the model and logs
// only ever see opaque tokens.
package pii

import (
	"regexp"
	"strconv"
	"strings"
)

type category struct {
	name    string
	pattern *regexp.Regexp
}

// Categories are scanned in declaration order; earlier categories claim
// overlapping matches first.
var categories = []category{
	{"EMAIL", regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"PHONE", regexp.MustCompile(`\b(?:\+?1[-.]?)?\(?[0-9]{3}\)?[-.]?[0-9]{3}[-.]?[0-9]{4}\b`)},
	{"SSN", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"CREDIT_CARD", regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)},
	{"IP_ADDRESS", regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
}

// Field name fragments that flag a structured record key as PII-bearing.
var piiFieldFragments = []string{
	"email", "phone", "ssn", "social_security",
	"address", "name", "dob", "date_of_birth",
	"license_number", "policy_number", "credit_card", "account_number",
}

// RedactedPlaceholder replaces matches in non-reversible redaction.
const RedactedPlaceholder = "[REDACTED]"

// Mapping records pseudonym assignments for one transformation call,
// keyed by original substring.
type Mapping map[string]string

// Redact replaces every PII match with a constant placeholder.
// Non-reversible; use Pseudonymize where restoration is needed.
func Redact(text string) string {
	for _, c := range categories {
		text = c.pattern.ReplaceAllString(text, RedactedPlaceholder)
	}
	return text
}

// Pseudonymize replaces each distinct PII substring with a unique token of
// the form [CATEGORY_n]. The counter is shared across categories and scoped
// to this call; repeated occurrences of an already-seen substring reuse its
// token. Returns the transformed text and the original→pseudonym mapping.
func Pseudonymize(text string) (string, Mapping) {
	mapping := make(Mapping)
	result := text
	counter := 1

	for _, c := range categories {
		for _, match := range c.pattern.FindAllString(text, -1) {
			pseudonym, seen := mapping[match]
			if !seen {
				pseudonym = "[" + c.name + "_" + strconv.Itoa(counter) + "]"
				mapping[match] = pseudonym
				counter++
			}
			result = strings.Replace(result, match, pseudonym, 1)
		}
	}

	return result, mapping
}

// Restore replaces every pseudonym token in text with its original value.
// A no-op when no tokens from the mapping remain in the text.
func Restore(text string, mapping Mapping) string {
	for original, pseudonym := range mapping {
		text = strings.ReplaceAll(text, pseudonym, original)
	}
	return text
}

// IdentifyFields returns the subset of record whose key names indicate PII
// (case-insensitive fragment match) and whose values are non-empty strings.
// Used to select fields for encryption before storage.
func IdentifyFields(record map[string]any) map[string]string {
	flagged := make(map[string]string)

	for key, value := range record {
		s, ok := value.(string)
		if !ok || s == "" {
			continue
		}
		if SensitiveField(key) {
			flagged[key] = s
		}
	}

	return flagged
}

// SensitiveField reports whether a field name indicates PII content.
func SensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range piiFieldFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
