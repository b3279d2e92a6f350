package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/assuralabs/assura/internal/extraction"
	"github.com/assuralabs/assura/internal/pipeline"
)

const (
	EnvPipelineMinConfidence     = "ASSURA_PIPELINE_MIN_CONFIDENCE"
	EnvPipelineHighSeverityBelow = "ASSURA_PIPELINE_HIGH_SEVERITY_BELOW"
	EnvPipelineCriticalFields    = "ASSURA_PIPELINE_CRITICAL_FIELDS"
	EnvPipelineCoveredTypes      = "ASSURA_PIPELINE_COVERED_TYPES"
	EnvPipelineWorkers           = "ASSURA_PIPELINE_WORKERS"
	EnvPipelineQueueSize         = "ASSURA_PIPELINE_QUEUE_SIZE"
	EnvPipelineWebhookURL        = "ASSURA_PIPELINE_WEBHOOK_URL"
	EnvPipelineWebhookTimeout    = "ASSURA_PIPELINE_WEBHOOK_TIMEOUT"
)

// PipelineConfig holds extraction policy thresholds and background
// processing settings.
type PipelineConfig struct {
	MinConfidence     float64  `toml:"min_confidence"`
	HighSeverityBelow float64  `toml:"high_severity_below"`
	CriticalFields    []string `toml:"critical_fields"`
	CoveredTypes      []string `toml:"covered_types"`
	Workers           int      `toml:"workers"`
	QueueSize         int      `toml:"queue_size"`
	WebhookURL        string   `toml:"webhook_url"`
	WebhookTimeout    string   `toml:"webhook_timeout"`
}

// ExtractionPolicy builds the validation policy for the structured extractor.
func (c *PipelineConfig) ExtractionPolicy() extraction.Policy {
	return extraction.Policy{
		MinConfidence:  c.MinConfidence,
		CriticalFields: c.CriticalFields,
	}
}

// Policy builds the processing policy for the background pipeline.
func (c *PipelineConfig) Policy() pipeline.Policy {
	return pipeline.Policy{
		Extraction:        c.ExtractionPolicy(),
		HighSeverityBelow: c.HighSeverityBelow,
		CoveredTypes:      c.CoveredTypes,
	}
}

// WebhookTimeoutDuration returns WebhookTimeout as a time.Duration.
func (c *PipelineConfig) WebhookTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WebhookTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.MinConfidence != 0 {
		c.MinConfidence = overlay.MinConfidence
	}
	if overlay.HighSeverityBelow != 0 {
		c.HighSeverityBelow = overlay.HighSeverityBelow
	}
	if overlay.CriticalFields != nil {
		c.CriticalFields = overlay.CriticalFields
	}
	if overlay.CoveredTypes != nil {
		c.CoveredTypes = overlay.CoveredTypes
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.WebhookURL != "" {
		c.WebhookURL = overlay.WebhookURL
	}
	if overlay.WebhookTimeout != "" {
		c.WebhookTimeout = overlay.WebhookTimeout
	}
}

func (c *PipelineConfig) loadDefaults() {
	defaults := pipeline.DefaultPolicy()

	if c.MinConfidence == 0 {
		c.MinConfidence = defaults.Extraction.MinConfidence
	}
	if c.HighSeverityBelow == 0 {
		c.HighSeverityBelow = defaults.HighSeverityBelow
	}
	if c.CriticalFields == nil {
		c.CriticalFields = defaults.Extraction.CriticalFields
	}
	if c.CoveredTypes == nil {
		c.CoveredTypes = defaults.CoveredTypes
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.WebhookTimeout == "" {
		c.WebhookTimeout = "10s"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineMinConfidence); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MinConfidence = f
		}
	}
	if v := os.Getenv(EnvPipelineHighSeverityBelow); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.HighSeverityBelow = f
		}
	}
	if v := os.Getenv(EnvPipelineCriticalFields); v != "" {
		c.CriticalFields = splitList(v)
	}
	if v := os.Getenv(EnvPipelineCoveredTypes); v != "" {
		c.CoveredTypes = splitList(v)
	}
	if v := os.Getenv(EnvPipelineWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvPipelineQueueSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueSize = n
		}
	}
	if v := os.Getenv(EnvPipelineWebhookURL); v != "" {
		c.WebhookURL = v
	}
	if v := os.Getenv(EnvPipelineWebhookTimeout); v != "" {
		c.WebhookTimeout = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1]: %f", c.MinConfidence)
	}
	if c.HighSeverityBelow < 0 || c.HighSeverityBelow > 1 {
		return fmt.Errorf("high_severity_below must be in [0,1]: %f", c.HighSeverityBelow)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if _, err := time.ParseDuration(c.WebhookTimeout); err != nil {
		return fmt.Errorf("invalid webhook_timeout: %w", err)
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
