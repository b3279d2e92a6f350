// Package llm provides the model-completion boundary for structured
// extraction. The extractor owns prompt construction and response parsing;
// this package owns only the call mechanics.
package llm

import "context"

// Provider sends a fully-formed prompt to a language model and returns the
// raw response text.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete sends the prompt and returns the model's text response.
	// Transport and auth failures are returned as errors; callers decide
	// whether a malformed response body is recoverable.
	Complete(ctx context.Context, prompt string) (string, error)

	// Available reports whether the provider is configured and reachable.
	Available(ctx context.Context) bool
}
