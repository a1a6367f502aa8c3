package config

import (
	"strings"
	"time"
)

const (
	defaultBackendURL     = "http://localhost:5000/api"
	defaultBackendTimeout = 15 * time.Second
)

// BackendConfig points the gateway at the school REST backend.
type BackendConfig struct {
	// BaseURL is the API root every backend path is resolved against.
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`

	// Timeout bounds each backend request.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`

	// MaxBodyBytes caps how much of a backend response is read.
	MaxBodyBytes int64 `env:"API_MAX_BODY_BYTES" envDefault:"4194304"`
}

// Sanitize trims the base URL and restores defaults for non-positive limits.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if b.BaseURL == "" {
		b.BaseURL = defaultBackendURL
	}
	if b.Timeout <= 0 {
		b.Timeout = defaultBackendTimeout
	}
	if b.MaxBodyBytes <= 0 {
		b.MaxBodyBytes = 4 << 20
	}
}
