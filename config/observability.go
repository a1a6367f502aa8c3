package config

import (
	"regexp"
	"strings"
)

const defaultMetricsNamespace = "aula"

var metricsNamespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ObservabilityConfig groups configuration that controls metrics and logging.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
	Logging ObservabilityLoggingConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Logging.Sanitize()
}

// ObservabilityMetricsConfig controls the Prometheus collectors and the /metrics endpoint.
type ObservabilityMetricsConfig struct {
	Enabled   bool   `env:"OBSERVABILITY_METRICS_ENABLED"   envDefault:"true"`
	Namespace string `env:"OBSERVABILITY_METRICS_NAMESPACE" envDefault:"aula"`
}

// Sanitize normalises the namespace; an invalid one falls back to the default.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.Namespace = strings.TrimSpace(c.Namespace)
	if !metricsNamespacePattern.MatchString(c.Namespace) {
		c.Namespace = defaultMetricsNamespace
	}
}

// IsEnabled returns true when metrics are collected.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled
}

// ObservabilityLoggingConfig controls the structured logger.
type ObservabilityLoggingConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Sanitize lowercases the level and defaults unknown values to info.
func (c *ObservabilityLoggingConfig) Sanitize() {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		c.Level = "info"
	}
}
