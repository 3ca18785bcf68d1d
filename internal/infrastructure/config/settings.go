package config

// SettingsConfig locates the operator settings file
type SettingsConfig struct {
	// JSON or YAML file holding the replenishment and dispatch settings
	Path string `mapstructure:"path" yaml:"path" validate:"required"`

	// Reload the file when it changes on disk
	Watch bool `mapstructure:"watch" yaml:"watch"`
}
