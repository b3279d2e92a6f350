// Package config loads and finalizes the Assura service configuration:
// TOML base file, environment overlay, then defaults, ASSURA_* environment
// overrides, and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/assuralabs/assura/internal/llm"
	"github.com/assuralabs/assura/pkg/crypto"
	"github.com/assuralabs/assura/pkg/database"
	"github.com/assuralabs/assura/pkg/middleware"
	"github.com/assuralabs/assura/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAssuraEnv             = "ASSURA_ENV"
	EnvAssuraShutdownTimeout = "ASSURA_SHUTDOWN_TIMEOUT"
	EnvAssuraVersion         = "ASSURA_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "ASSURA_DB_HOST",
	Port:            "ASSURA_DB_PORT",
	Name:            "ASSURA_DB_NAME",
	User:            "ASSURA_DB_USER",
	Password:        "ASSURA_DB_PASSWORD",
	SSLMode:         "ASSURA_DB_SSL_MODE",
	MaxOpenConns:    "ASSURA_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ASSURA_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ASSURA_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ASSURA_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "ASSURA_STORAGE_CONTAINER_NAME",
	ConnectionString: "ASSURA_STORAGE_CONNECTION_STRING",
}

var cryptoEnv = &crypto.Env{
	Enabled: "ASSURA_CRYPTO_ENABLED",
	Key:     "ASSURA_CRYPTO_KEY",
}

var llmEnv = &llm.Env{
	BaseURL:   "ASSURA_LLM_BASE_URL",
	APIKey:    "ASSURA_LLM_API_KEY",
	Model:     "ASSURA_LLM_MODEL",
	MaxTokens: "ASSURA_LLM_MAX_TOKENS",
	Timeout:   "ASSURA_LLM_TIMEOUT",
}

var authEnv = &middleware.AuthEnv{
	Enabled:   "ASSURA_AUTH_ENABLED",
	IssuerURL: "ASSURA_AUTH_ISSUER_URL",
	Audience:  "ASSURA_AUTH_AUDIENCE",
}

// Config is the root configuration for the Assura service.
type Config struct {
	Server          ServerConfig          `toml:"server"`
	Database        database.Config       `toml:"database"`
	Storage         storage.Config        `toml:"storage"`
	Crypto          crypto.Config         `toml:"crypto"`
	LLM             llm.Config            `toml:"llm"`
	Auth            middleware.AuthConfig `toml:"auth"`
	API             APIConfig             `toml:"api"`
	Pipeline        PipelineConfig        `toml:"pipeline"`
	ShutdownTimeout string                `toml:"shutdown_timeout"`
	Version         string                `toml:"version"`
}

// Env returns the ASSURA_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAssuraEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and
// environment variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Crypto.Merge(&overlay.Crypto)
	c.LLM.Merge(&overlay.LLM)
	c.Auth.Merge(&overlay.Auth)
	c.API.Merge(&overlay.API)
	c.Pipeline.Merge(&overlay.Pipeline)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Crypto.Finalize(cryptoEnv); err != nil {
		return fmt.Errorf("crypto: %w", err)
	}
	if err := c.LLM.Finalize(llmEnv); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAssuraShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAssuraVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAssuraEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
