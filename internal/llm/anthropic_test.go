package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testConfig(baseURL string) *Config {
	cfg := &Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
	}
	cfg.loadDefaults()
	return cfg
}

func TestAnthropicComplete(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var gotReq anthropicRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"content": [{"type": "text", "text": "  {\"severity\": \"low\"}  "}],
			"model": "claude-3-5-sonnet-20241022",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 8}
		}`))
	}))
	defer server.Close()

	provider, err := NewAnthropic(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}

	text, err := provider.Complete(context.Background(), "describe the incident")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"severity": "low"}` {
		t.Errorf("unexpected text %q", text)
	}

	if gotPath != "/v1/messages" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("unexpected api key header %q", gotKey)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("unexpected version header %q", gotVersion)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "describe the incident" {
		t.Errorf("unexpected request messages %+v", gotReq.Messages)
	}
	if gotReq.Messages[0].Role != "user" {
		t.Errorf("unexpected role %q", gotReq.Messages[0].Role)
	}
}

func TestAnthropicCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropic(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}

	_, err = provider.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rate_limit_error") || !strings.Contains(err.Error(), "slow down") {
		t.Errorf("error missing api details: %v", err)
	}
}

func TestAnthropicCompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content": []}`))
	}))
	defer server.Close()

	provider, err := NewAnthropic(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}

	if _, err := provider.Complete(context.Background(), "prompt"); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestAnthropicAvailable(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content": [{"type": "text", "text": "Hi"}]}`))
	}))
	defer healthy.Close()

	provider, err := NewAnthropic(testConfig(healthy.URL))
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}
	if !provider.Available(context.Background()) {
		t.Error("expected healthy provider to be available")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	provider, err = NewAnthropic(testConfig(down.URL))
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}
	if provider.Available(context.Background()) {
		t.Error("expected unavailable on 503")
	}
}

func TestNewAnthropicRequiresKey(t *testing.T) {
	if _, err := NewAnthropic(&Config{}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := &Config{APIKey: "k"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.BaseURL != "https://api.anthropic.com" {
		t.Errorf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("unexpected max tokens %d", cfg.MaxTokens)
	}
	if cfg.Timeout != "60s" {
		t.Errorf("unexpected timeout %q", cfg.Timeout)
	}
}

func TestConfigValidateRejectsMissingKey(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected validation error without api key")
	}
}

func TestConfigMerge(t *testing.T) {
	base := &Config{APIKey: "base", Model: "m1", MaxTokens: 512}
	base.Merge(&Config{Model: "m2", Timeout: "30s"})

	if base.APIKey != "base" {
		t.Errorf("merge must keep unset fields, got %q", base.APIKey)
	}
	if base.Model != "m2" || base.Timeout != "30s" {
		t.Errorf("merge must apply overlay fields, got %+v", base)
	}
	if base.MaxTokens != 512 {
		t.Errorf("merge must keep max tokens, got %d", base.MaxTokens)
	}
}
