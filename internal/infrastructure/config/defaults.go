package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "shipman.db"
	}
	if cfg.Database.Type == "postgres" {
		if cfg.Database.Host == "" {
			cfg.Database.Host = "localhost"
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
		if cfg.Database.User == "" {
			cfg.Database.User = "shipman"
		}
		if cfg.Database.Name == "" {
			cfg.Database.Name = "shipman"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 10
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 2
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Daemon defaults
	if cfg.Daemon.SocketPath == "" {
		cfg.Daemon.SocketPath = "/tmp/shipman-daemon.sock"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/shipman-daemon.pid"
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 15 * time.Second
	}

	// Bridge defaults
	if cfg.Bridge.GameURL == "" {
		cfg.Bridge.GameURL = "https://shippingmanager.cc"
	}
	if cfg.Bridge.Browser == "" {
		cfg.Bridge.Browser = "chromium"
	}
	if cfg.Bridge.Window.Width == 0 {
		cfg.Bridge.Window.Width = 1100
	}
	if cfg.Bridge.Window.Height == 0 {
		cfg.Bridge.Window.Height = 860
	}
	if cfg.Bridge.Window.X == 0 {
		cfg.Bridge.Window.X = 380
	}
	if cfg.Bridge.ScriptTimeout == 0 {
		cfg.Bridge.ScriptTimeout = 30 * time.Second
	}
	if cfg.Bridge.RateLimit.PerSecond == 0 {
		cfg.Bridge.RateLimit.PerSecond = 4
	}
	if cfg.Bridge.RateLimit.Burst == 0 {
		cfg.Bridge.RateLimit.Burst = 4
	}
	if cfg.Bridge.CircuitBreaker.MaxFailures == 0 {
		cfg.Bridge.CircuitBreaker.MaxFailures = 5
	}
	if cfg.Bridge.CircuitBreaker.Cooldown == 0 {
		cfg.Bridge.CircuitBreaker.Cooldown = 30 * time.Second
	}

	// Controller defaults: six minutes for the page, six for the login
	if cfg.Controller.ReadyPollInterval == 0 {
		cfg.Controller.ReadyPollInterval = 2 * time.Second
	}
	if cfg.Controller.ReadyMaxAttempts == 0 {
		cfg.Controller.ReadyMaxAttempts = 180
	}
	if cfg.Controller.LoginPollInterval == 0 {
		cfg.Controller.LoginPollInterval = 2 * time.Second
	}
	if cfg.Controller.LoginMaxAttempts == 0 {
		cfg.Controller.LoginMaxAttempts = 180
	}
	if cfg.Controller.DeparturePacing == 0 {
		cfg.Controller.DeparturePacing = 500 * time.Millisecond
	}

	// Settings defaults
	if cfg.Settings.Path == "" {
		cfg.Settings.Path = "settings.json"
	}

	// Metrics defaults
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.LedgerPollInterval == 0 {
		cfg.Metrics.LedgerPollInterval = 60 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.DedupWindowSeconds == 0 {
		cfg.Logging.DedupWindowSeconds = 60
	}
}
