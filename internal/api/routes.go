package api

import (
	"net/http"

	"github.com/assuralabs/assura/internal/config"
	"github.com/assuralabs/assura/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Incidents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
	)
}
