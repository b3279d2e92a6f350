package api

import (
	"github.com/assuralabs/assura/internal/config"
	"github.com/assuralabs/assura/internal/infrastructure"
	"github.com/assuralabs/assura/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Cipher:    infra.Cipher,
			Provider:  infra.Provider,
		},
		Pagination: cfg.API.Pagination,
	}
}
