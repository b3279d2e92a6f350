package formatting

import (
	"errors"
	"testing"
)

type payload struct {
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
}

func TestParseDirectJSON(t *testing.T) {
	result, err := Parse[payload](`{"severity": "low", "confidence": 0.9}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Severity != "low" || result.Confidence != 0.9 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestParseCodeFence(t *testing.T) {
	inputs := []string{
		"```json\n{\"severity\": \"high\"}\n```",
		"```\n{\"severity\": \"high\"}\n```",
		"Here is the result:\n```json\n{\"severity\": \"high\"}\n```\nLet me know if you need more.",
	}

	for _, input := range inputs {
		result, err := Parse[payload](input)
		if err != nil {
			t.Errorf("Parse(%q): %v", input, err)
			continue
		}
		if result.Severity != "high" {
			t.Errorf("Parse(%q) severity = %q", input, result.Severity)
		}
	}
}

func TestParseFailure(t *testing.T) {
	_, err := Parse[payload]("I could not determine the details.")
	if !errors.Is(err, ErrParseFailed) {
		t.Errorf("expected ErrParseFailed, got %v", err)
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"512", 512},
		{"1KB", 1024},
		{"50MB", 50 * 1024 * 1024},
		{"1.5 GB", 1610612736},
		{"2gb", 2 * 1024 * 1024 * 1024},
	}

	for _, tt := range tests {
		got, err := ParseBytes(tt.input)
		if err != nil {
			t.Errorf("ParseBytes(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseBytesInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "5XB", "-1MB"} {
		if _, err := ParseBytes(input); err == nil {
			t.Errorf("ParseBytes(%q) expected error", input)
		}
	}
}
