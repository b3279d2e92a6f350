package config

import (
	"testing"
)

func TestPipelineConfigDefaults(t *testing.T) {
	cfg := &PipelineConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.MinConfidence != 0.6 {
		t.Errorf("unexpected min confidence %f", cfg.MinConfidence)
	}
	if cfg.HighSeverityBelow != 0.4 {
		t.Errorf("unexpected severity threshold %f", cfg.HighSeverityBelow)
	}
	if len(cfg.CriticalFields) != 3 {
		t.Errorf("unexpected critical fields %v", cfg.CriticalFields)
	}
	if cfg.Workers != 4 || cfg.QueueSize != 64 {
		t.Errorf("unexpected pool settings workers=%d queue=%d", cfg.Workers, cfg.QueueSize)
	}
	if cfg.WebhookTimeout != "10s" {
		t.Errorf("unexpected webhook timeout %q", cfg.WebhookTimeout)
	}
}

func TestPipelineConfigEnvOverride(t *testing.T) {
	t.Setenv(EnvPipelineMinConfidence, "0.75")
	t.Setenv(EnvPipelineCoveredTypes, "theft, vandalism")
	t.Setenv(EnvPipelineWorkers, "2")

	cfg := &PipelineConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.MinConfidence != 0.75 {
		t.Errorf("env override ignored, got %f", cfg.MinConfidence)
	}
	if len(cfg.CoveredTypes) != 2 || cfg.CoveredTypes[0] != "theft" || cfg.CoveredTypes[1] != "vandalism" {
		t.Errorf("unexpected covered types %v", cfg.CoveredTypes)
	}
	if cfg.Workers != 2 {
		t.Errorf("unexpected workers %d", cfg.Workers)
	}
}

func TestPipelineConfigValidate(t *testing.T) {
	cfg := &PipelineConfig{MinConfidence: 1.5}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected error for out-of-range min_confidence")
	}

	cfg = &PipelineConfig{Workers: -1}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected error for negative workers")
	}

	cfg = &PipelineConfig{WebhookTimeout: "soon"}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected error for bad webhook timeout")
	}
}

func TestPipelineConfigMerge(t *testing.T) {
	base := &PipelineConfig{}
	if err := base.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	base.Merge(&PipelineConfig{
		MinConfidence: 0.8,
		CoveredTypes:  []string{"theft"},
	})

	if base.MinConfidence != 0.8 {
		t.Errorf("merge must apply overlay, got %f", base.MinConfidence)
	}
	if len(base.CoveredTypes) != 1 {
		t.Errorf("merge must replace covered types, got %v", base.CoveredTypes)
	}
	if base.Workers != 4 {
		t.Errorf("merge must keep unset fields, got %d", base.Workers)
	}
}

func TestPipelinePolicyBuilders(t *testing.T) {
	cfg := &PipelineConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	policy := cfg.Policy()
	if policy.Extraction.MinConfidence != cfg.MinConfidence {
		t.Errorf("policy threshold mismatch: %f", policy.Extraction.MinConfidence)
	}
	if policy.HighSeverityBelow != cfg.HighSeverityBelow {
		t.Errorf("policy severity mismatch: %f", policy.HighSeverityBelow)
	}
	if len(policy.CoveredTypes) == 0 {
		t.Error("policy must carry covered types")
	}
}
