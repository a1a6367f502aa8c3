package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - backend.go: School backend API
//   - auth.go: Token storage and client identity
//   - database.go: Redis configuration
//   - http.go: HTTP server configuration
//   - observability.go: Metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (templates from disk, no caching).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Backend API configuration
	Backend BackendConfig

	// Authentication configuration
	Auth AuthConfig

	// Redis configuration (token store)
	Redis RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig

	// Command line client configuration
	CLI CLIConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Backend.Sanitize()
	c.Auth.Sanitize()
	c.HTTP.Sanitize()
	c.Redis.Sanitize()
	c.Observability.Sanitize()
	c.CLI.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// UsesRedis reports whether the configured token store needs a Redis connection.
func (c *AppConfig) UsesRedis() bool {
	return c.Auth.TokenStore == TokenStoreRedis
}
