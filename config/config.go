// Package config assembles the gateway configuration from the environment
// once at process start. Components receive the parsed values explicitly;
// nothing reads environment variables at request time.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"authgate/pkg/logger"
	"authgate/pkg/oauth"
)

// ErrInvalidConfig is returned when required configuration is missing or
// malformed. The process must not serve traffic in that case.
var ErrInvalidConfig = errors.New("config: invalid configuration")

const callbackPath = "/auth/google/callback/redirect"

// Config holds all deployment-owned settings.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Environment toggles the production cookie policy when set to "production".
	Environment string `env:"APP_ENV" envDefault:"development"`

	// GatewayURL is this service's own externally reachable base URL,
	// used to build the OAuth redirect URI.
	GatewayURL string `env:"GATEWAY_URL" envDefault:"http://localhost:8080"`

	// FrontendURLs is the allow-list of frontend origins. The first entry
	// is the default target when a request's Origin is absent or unknown.
	FrontendURLs []string `env:"FRONTEND_URLS" envSeparator:"," envDefault:"http://localhost:3000"`

	// JWTSecret signs session tokens.
	JWTSecret string `env:"JWT_SECRET,required"`

	// SessionSecret signs the browser session identifier cookie.
	SessionSecret string `env:"SESSION_SECRET_KEY,required"`

	// RedisURL enables the Redis-backed state store when set. Empty means
	// the in-memory store (single replica only).
	RedisURL string `env:"REDIS_URL"`

	Google oauth.GoogleConfig
	Sentry logger.SentryConfig
}

// Load parses and validates configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		return errors.New("google oauth credentials not configured")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt signing secret not configured")
	}
	if c.SessionSecret == "" {
		return errors.New("session signing secret not configured")
	}
	if len(c.FrontendURLs) == 0 {
		return errors.New("at least one frontend URL is required")
	}
	for i, u := range c.FrontendURLs {
		c.FrontendURLs[i] = strings.TrimRight(strings.TrimSpace(u), "/")
	}
	c.GatewayURL = strings.TrimRight(strings.TrimSpace(c.GatewayURL), "/")
	return nil
}

// IsProduction reports whether the production cookie policy applies.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// CallbackURL is the redirect URI registered with the provider. The same
// value must be used for the authorization URL and the code exchange.
func (c Config) CallbackURL() string {
	return fmt.Sprintf("%s%s", c.GatewayURL, callbackPath)
}
