// Package infrastructure provides core service initialization for application
// startup. It assembles common dependencies (logging, database, blob storage,
// field encryption, model provider) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/assuralabs/assura/internal/config"
	"github.com/assuralabs/assura/internal/llm"
	"github.com/assuralabs/assura/pkg/crypto"
	"github.com/assuralabs/assura/pkg/database"
	"github.com/assuralabs/assura/pkg/lifecycle"
	"github.com/assuralabs/assura/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, file storage, encryption, and the LLM provider.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Cipher    crypto.Cipher
	Provider  llm.Provider
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	cipher, err := crypto.NewCipher(&cfg.Crypto)
	if err != nil {
		return nil, fmt.Errorf("cipher init failed: %w", err)
	}

	provider, err := llm.NewAnthropic(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("provider init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Cipher:    cipher,
		Provider:  provider,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown
// coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
