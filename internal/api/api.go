// Package api assembles the API module with all domain systems and route
// registration.
package api

import (
	"context"
	"net/http"

	"github.com/assuralabs/assura/internal/config"
	"github.com/assuralabs/assura/internal/infrastructure"
	"github.com/assuralabs/assura/pkg/middleware"
	"github.com/assuralabs/assura/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware,
// and registers the dispatch pool with the service lifecycle.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	auth, err := middleware.Auth(&cfg.Auth, runtime.Logger)
	if err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(auth)
	m.Use(middleware.Logger(runtime.Logger))

	domain.Pool.Start()
	infra.Lifecycle.OnShutdown(func() {
		<-infra.Lifecycle.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
		defer cancel()

		if err := domain.Pool.Shutdown(ctx); err != nil {
			runtime.Logger.Warn("dispatch pool shutdown incomplete", "error", err)
		}
	})

	return m, nil
}
