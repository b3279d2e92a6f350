package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey struct{}

var userKey contextKey

// ErrUnauthorized indicates the request carried no valid caller identity.
var ErrUnauthorized = errors.New("unauthorized")

// UserID returns the authenticated caller's user id from the request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey).(string)
	return id, ok
}

// WithUserID returns a context carrying the given user id.
// Exposed for handler tests.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// AuthConfig holds bearer-token verification settings. When disabled, the
// caller identity is read from the X-User-Id header instead of a verified
// token; intended for local and test deployments only.
type AuthConfig struct {
	Enabled   bool   `toml:"enabled"`
	IssuerURL string `toml:"issuer_url"`
	Audience  string `toml:"audience"`
}

// AuthEnv maps auth config fields to environment variable names for override injection.
type AuthEnv struct {
	Enabled   string
	IssuerURL string
	Audience  string
}

// Finalize applies environment variable overrides and validation.
func (c *AuthConfig) Finalize(env *AuthEnv) error {
	if env != nil {
		c.loadEnv(env)
	}
	if c.Enabled && c.IssuerURL == "" {
		return fmt.Errorf("issuer_url required when auth is enabled")
	}
	return nil
}

// Merge overwrites fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	c.Enabled = overlay.Enabled
	if overlay.IssuerURL != "" {
		c.IssuerURL = overlay.IssuerURL
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
}

func (c *AuthConfig) loadEnv(env *AuthEnv) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.IssuerURL != "" {
		if v := os.Getenv(env.IssuerURL); v != "" {
			c.IssuerURL = v
		}
	}
	if env.Audience != "" {
		if v := os.Getenv(env.Audience); v != "" {
			c.Audience = v
		}
	}
}

// Auth returns middleware that resolves the caller's user id and stores it in
// the request context. With verification enabled, the id is the subject of an
// OIDC-verified bearer token; otherwise it is taken from the X-User-Id header.
func Auth(cfg *AuthConfig, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	if !cfg.Enabled {
		return headerAuth(logger), nil
	}

	provider, err := oidc.NewProvider(context.Background(), cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:          cfg.Audience,
		SkipClientIDCheck: cfg.Audience == "",
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			token, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				logger.Warn("token verification failed", "error", err)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), token.Subject)))
		})
	}, nil
}

func headerAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-User-Id")
			if id == "" {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`))
}
