package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show daemon configuration and CLI preferences",
		Long: `Show the effective daemon configuration and manage CLI preferences.

Configuration is loaded from multiple sources with priority:
1. Environment variables (SM_* prefix, plus DATABASE_URL)
2. Config file (config.yaml)
3. Default values

CLI preferences are stored in ~/.shipman/cli.json

Examples:
  shipman config show
  shipman config set-socket /run/shipman/daemon.sock`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetSocketCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the effective configuration. Passwords are never printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Fprintf(out, "Warning: %v\nUsing default configuration.\n\n", err)
				cfg = config.Default()
			}
			cfg.Database.URL = maskPassword(cfg.Database.URL)

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to format config: %w", err)
			}
			fmt.Fprint(out, string(data))

			credentials := "not set (log in manually in the browser window)"
			if cfg.Controller.HasCredentials() {
				credentials = "set"
			}
			fmt.Fprintf(out, "\nAuto-login credentials: %s\n", credentials)

			handler, err := config.NewUserConfigHandler()
			if err == nil {
				fmt.Fprintf(out, "CLI preferences:        %s\n", handler.GetConfigPath())
			}
			fmt.Fprintf(out, "Daemon socket:          %s\n", socketPath)
			return nil
		},
	}
}

func newConfigSetSocketCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-socket <path>",
		Short: "Remember the daemon socket path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := handler.SetSocketPath(args[0]); err != nil {
				return fmt.Errorf("failed to save socket path: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default socket set to %s\n", args[0])
			return nil
		},
	}
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	// Redacted writes the mask as xxxxx
	return strings.Replace(u.Redacted(), ":xxxxx@", ":****@", 1)
}
