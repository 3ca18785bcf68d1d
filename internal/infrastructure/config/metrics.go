package config

import (
	"fmt"
	"time"
)

// MetricsConfig holds metrics collection and exposure configuration
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port for the HTTP metrics server (Prometheus endpoint)
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1024,max=65535"`

	// Host to bind the metrics HTTP server (default: localhost for security)
	Host string `mapstructure:"host" yaml:"host"`

	// Path for the metrics endpoint (default: /metrics)
	Path string `mapstructure:"path" yaml:"path" validate:"omitempty,startswith=/"`

	// How often the persisted ledger totals are re-read
	LedgerPollInterval time.Duration `mapstructure:"ledger_poll_interval" yaml:"ledger_poll_interval"`
}

// Address returns host:port for the metrics listener
func (m MetricsConfig) Address() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}
