package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/config"
)

const defaultSocketPath = "/tmp/shipman-daemon.sock"

var (
	// Global flags
	socketPath string
	configPath string
	verbose    bool
	noColor    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shipman",
		Short: "Shipping Manager autopilot CLI",
		Long: `shipman controls the Shipping Manager autopilot daemon.

Control commands talk to the daemon over its Unix socket. Ledger, settings
and config commands read the local database and files directly, so they
work while the daemon is down.

Examples:
  shipman status --refresh
  shipman start
  shipman run-now
  shipman settings set fuel_mode=basic fuel_threshold=450
  shipman ledger summary --start-date 2025-01-01
  shipman watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", getDefaultSocketPath(),
		"Path to daemon Unix socket")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config.yaml (default: ./config.yaml, ./configs, /etc/shipman)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", getDefaultNoColor(),
		"Disable colours")

	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewRunNowCommand())
	rootCmd.AddCommand(NewSessionCommand())
	rootCmd.AddCommand(NewLedgerCommand())
	rootCmd.AddCommand(NewSettingsCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewWatchCommand())

	return rootCmd
}

// getDefaultSocketPath prefers SHIPMAN_SOCKET, then the saved CLI preference
func getDefaultSocketPath() string {
	if path := os.Getenv("SHIPMAN_SOCKET"); path != "" {
		return path
	}
	if userCfg := loadUserConfig(); userCfg.SocketPath != "" {
		return userCfg.SocketPath
	}
	return defaultSocketPath
}

func getDefaultNoColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return loadUserConfig().NoColor
}

func loadUserConfig() *config.UserConfig {
	handler, err := config.NewUserConfigHandler()
	if err != nil {
		return &config.UserConfig{}
	}
	userCfg, err := handler.Load()
	if err != nil {
		return &config.UserConfig{}
	}
	return userCfg
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
