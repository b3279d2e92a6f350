package api

import (
	"github.com/assuralabs/assura/internal/config"
	"github.com/assuralabs/assura/internal/dispatch"
	"github.com/assuralabs/assura/internal/evidence"
	"github.com/assuralabs/assura/internal/extraction"
	"github.com/assuralabs/assura/internal/incidents"
	"github.com/assuralabs/assura/internal/pipeline"
)

// Domain holds the domain systems that comprise the API, plus the dispatch
// pool driving background processing.
type Domain struct {
	Incidents incidents.System
	Pool      *dispatch.Pool
}

// NewDomain wires the intake and processing graph: repository over database,
// storage, and cipher; evidence analyzers with the local OCR engine;
// the structured extractor over the model provider; the background pipeline
// on a dispatch pool; and the incident system on top of all of it.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	repo := incidents.NewRepository(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Cipher,
		runtime.Pagination,
	)

	processor := evidence.NewProcessor(evidence.NewTesseract(), runtime.Logger)

	extractor := extraction.NewExtractor(
		runtime.Provider,
		cfg.Pipeline.ExtractionPolicy(),
		runtime.Logger,
	)

	pipe := pipeline.NewProcessor(
		repo,
		newNotifier(cfg, runtime),
		cfg.Pipeline.Policy(),
		runtime.Logger,
	)

	pool := dispatch.NewPool(
		cfg.Pipeline.Workers,
		cfg.Pipeline.QueueSize,
		pipe.Process,
		runtime.Logger,
	)

	system := incidents.New(
		repo,
		processor,
		extractor,
		pool,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Incidents: system,
		Pool:      pool,
	}
}

func newNotifier(cfg *config.Config, runtime *Runtime) pipeline.Notifier {
	if cfg.Pipeline.WebhookURL != "" {
		return pipeline.NewWebhookNotifier(
			cfg.Pipeline.WebhookURL,
			cfg.Pipeline.WebhookTimeoutDuration(),
			runtime.Logger,
		)
	}
	return pipeline.NewLogNotifier(runtime.Logger)
}
