package config

import (
	"fmt"
	"strings"
	"time"
)

// TokenStoreMode selects where bearer tokens are persisted.
type TokenStoreMode string

const (
	// TokenStoreRedis keeps one key per client in Redis.
	TokenStoreRedis TokenStoreMode = "redis"
	// TokenStoreFile keeps tokens in a local JSON file (single instance, development).
	TokenStoreFile TokenStoreMode = "file"
)

// UnmarshalText implements encoding.TextUnmarshaler for TokenStoreMode.
func (m *TokenStoreMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "file":
		*m = TokenStoreMode(v)
		return nil
	default:
		return fmt.Errorf("invalid TokenStoreMode: %q (valid options: redis, file)", v)
	}
}

// AuthConfig groups token persistence and client identity settings.
type AuthConfig struct {
	// TokenStore determines where tokens are persisted.
	TokenStore TokenStoreMode `env:"AUTH_TOKEN_STORE" envDefault:"redis"`

	// TokenFile is the token file used when TokenStore=file.
	TokenFile string `env:"AUTH_TOKEN_FILE" envDefault:"aula-tokens.json"`

	// TokenTTL is the lifetime of a stored token whose JWT carries no exp claim.
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"8h"`

	// TokenKeyPrefix namespaces token keys in Redis.
	TokenKeyPrefix string `env:"AUTH_TOKEN_KEY_PREFIX" envDefault:"aula:token:"`

	// ClientCookie names the cookie carrying the browser identity.
	ClientCookie string `env:"AUTH_CLIENT_COOKIE" envDefault:"aula_client"`

	// ClientCookieMaxAge is how long a browser identity lives.
	ClientCookieMaxAge time.Duration `env:"AUTH_CLIENT_COOKIE_MAX_AGE" envDefault:"720h"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.TokenStore == "" {
		a.TokenStore = TokenStoreRedis
	}
	a.TokenFile = strings.TrimSpace(a.TokenFile)
	if a.TokenFile == "" {
		a.TokenFile = "aula-tokens.json"
	}
	if a.TokenTTL <= 0 {
		a.TokenTTL = 8 * time.Hour
	}
	if a.TokenKeyPrefix = strings.TrimSpace(a.TokenKeyPrefix); a.TokenKeyPrefix == "" {
		a.TokenKeyPrefix = "aula:token:"
	}
	if a.ClientCookie = strings.TrimSpace(a.ClientCookie); a.ClientCookie == "" {
		a.ClientCookie = "aula_client"
	}
	if a.ClientCookieMaxAge < time.Hour {
		a.ClientCookieMaxAge = 720 * time.Hour
	}
}

// CLIConfig controls the command line client.
type CLIConfig struct {
	// TokenFile overrides the token file location. Defaults to the user config dir.
	TokenFile string `env:"AULA_CLI_TOKEN_FILE"`
}

// Sanitize trims the token file path.
func (c *CLIConfig) Sanitize() {
	c.TokenFile = strings.TrimSpace(c.TokenFile)
}
