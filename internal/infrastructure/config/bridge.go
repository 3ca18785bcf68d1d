package config

import "time"

// BridgeConfig holds the browser session and script gate configuration
type BridgeConfig struct {
	// Page opened at startup
	GameURL string `mapstructure:"game_url" yaml:"game_url" validate:"required,url"`

	// Preferred browser; the others are tried when it is not installed
	Browser string `mapstructure:"browser" yaml:"browser" validate:"required,oneof=chromium firefox webkit"`

	Headless bool `mapstructure:"headless" yaml:"headless"`

	// Skip downloading the playwright driver and browsers on startup
	SkipInstall bool `mapstructure:"skip_install" yaml:"skip_install"`

	Window WindowConfig `mapstructure:"window" yaml:"window"`

	// Per-script timeout
	ScriptTimeout time.Duration `mapstructure:"script_timeout" yaml:"script_timeout" validate:"required"`

	RateLimit      BridgeRateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig  `mapstructure:"circuit_breaker" yaml:"circuit_breaker"`
}

// WindowConfig places the browser window
type WindowConfig struct {
	Width  int `mapstructure:"width" yaml:"width" validate:"min=320"`
	Height int `mapstructure:"height" yaml:"height" validate:"min=240"`
	X      int `mapstructure:"x" yaml:"x"`
	Y      int `mapstructure:"y" yaml:"y"`
}

// BridgeRateLimitConfig holds the script token bucket settings
type BridgeRateLimitConfig struct {
	// Scripts per second; 0 disables the limiter
	PerSecond float64 `mapstructure:"per_second" yaml:"per_second" validate:"min=0"`

	// Burst size for token bucket
	Burst int `mapstructure:"burst" yaml:"burst" validate:"min=1"`
}

// CircuitBreakerConfig holds the bridge circuit breaker settings
type CircuitBreakerConfig struct {
	// Consecutive bridge failures that open the circuit
	MaxFailures int `mapstructure:"max_failures" yaml:"max_failures" validate:"min=1"`

	// How long the circuit stays open before a trial call
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown" validate:"required"`
}
