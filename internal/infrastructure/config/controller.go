package config

import "time"

// ControllerConfig holds the controller wait policy and login credentials
type ControllerConfig struct {
	ReadyPollInterval time.Duration `mapstructure:"ready_poll_interval" yaml:"ready_poll_interval" validate:"required"`
	ReadyMaxAttempts  int           `mapstructure:"ready_max_attempts" yaml:"ready_max_attempts" validate:"min=1"`
	LoginPollInterval time.Duration `mapstructure:"login_poll_interval" yaml:"login_poll_interval" validate:"required"`
	LoginMaxAttempts  int           `mapstructure:"login_max_attempts" yaml:"login_max_attempts" validate:"min=1"`

	// Delay between consecutive departures in one cycle
	DeparturePacing time.Duration `mapstructure:"departure_pacing" yaml:"departure_pacing"`

	// Credentials for the automatic login; usually SM_CONTROLLER_EMAIL and
	// SM_CONTROLLER_PASSWORD rather than the config file
	Email    string `mapstructure:"email" yaml:"email,omitempty" validate:"omitempty,email"`
	Password string `mapstructure:"password" yaml:"-"`
}

// HasCredentials reports whether both login fields are set
func (c ControllerConfig) HasCredentials() bool {
	return c.Email != "" && c.Password != ""
}
