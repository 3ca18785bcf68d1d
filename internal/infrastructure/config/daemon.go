package config

import "time"

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	// Unix socket the gRPC control service listens on
	SocketPath string `mapstructure:"socket_path" yaml:"socket_path" validate:"required"`

	// PID file guarding against a second daemon
	PIDFile string `mapstructure:"pid_file" yaml:"pid_file" validate:"required"`

	// Start the controller as soon as the daemon is up
	AutoStart bool `mapstructure:"auto_start" yaml:"auto_start"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required"`
}
