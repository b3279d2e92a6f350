package crypto

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
)

// Config holds encryption-at-rest settings. When disabled, the Identity
// cipher backs the boundary and stored fields are plaintext.
type Config struct {
	Enabled bool   `toml:"enabled"`
	Key     string `toml:"key"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled string
	Key     string
}

// Finalize applies environment variable overrides and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	if overlay.Key != "" {
		c.Key = overlay.Key
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.Key != "" {
		if v := os.Getenv(env.Key); v != "" {
			c.Key = v
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	key, err := base64.StdEncoding.DecodeString(c.Key)
	if err != nil {
		return fmt.Errorf("key must be base64: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return nil
}

// NewCipher creates the Cipher selected by the config: AES-256-GCM when
// enabled, Identity otherwise.
func NewCipher(cfg *Config) (Cipher, error) {
	if !cfg.Enabled {
		return Identity{}, nil
	}

	key, err := base64.StdEncoding.DecodeString(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}

	return NewAES(key)
}
