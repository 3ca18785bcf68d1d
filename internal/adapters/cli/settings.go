package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	domainSettings "github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
	settingsStore "github.com/andrescamacho/shippingmanager-go/internal/infrastructure/settings"
)

// NewSettingsCommand creates the settings command with subcommands
func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Replenishment and dispatch settings",
		Long: `Show or change the autopilot settings file.

The daemon watches the file and picks up changes on its next cycle, so there
is no need to restart it.

Keys:
  fuel_mode        off | basic | intelligent
  fuel_threshold   buy fuel when the price per ton is at or below this
  fuel_min_cash    never spend below this cash reserve on fuel
  co2_mode         off | basic
  co2_threshold    buy CO2 when the price per ton is at or below this
  co2_min_cash     never spend below this cash reserve on CO2
  auto_depart      true | false
  check_interval   seconds between cycles

Examples:
  shipman settings show
  shipman settings set fuel_mode=basic fuel_threshold=450
  shipman settings set auto_depart=true check_interval=120`,
	}

	cmd.AddCommand(newSettingsShowCommand())
	cmd.AddCommand(newSettingsSetCommand())

	return cmd
}

func newSettingsShowCommand() *cobra.Command {
	var (
		asYAML bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings()
			if err != nil {
				return err
			}
			cfg := store.Current()
			out := cmd.OutOrStdout()

			switch {
			case asYAML:
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("failed to format settings: %w", err)
				}
				_, err = out.Write(data)
				return err
			case asJSON:
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format settings: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "%s\n\n", paint(titleStyle, store.Path()))
			printSettings(out, cfg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

func newSettingsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value [key=value...]",
		Short: "Change one or more settings",
		Long: `Change settings. All assignments are validated together; if any is
invalid nothing is written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates, err := parseAssignments(args)
			if err != nil {
				return err
			}

			store, err := openSettings()
			if err != nil {
				return err
			}
			before := store.Current()

			after, err := store.Apply(updates)
			if err != nil {
				return fmt.Errorf("failed to update settings: %w", err)
			}

			printSettingsDiff(cmd.OutOrStdout(), before, after)
			return nil
		},
	}
}

func openSettings() (*settingsStore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := settingsStore.Open(cfg.Settings.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return store, nil
}

func printSettingsDiff(w io.Writer, before, after domainSettings.Configuration) {
	old := settingsMap(before)
	changed := 0
	for _, entry := range settingsMapEntries(after) {
		if old[entry.key] == entry.value {
			continue
		}
		changed++
		fmt.Fprintf(w, "%s: %s -> %s\n", entry.key, old[entry.key], paint(goodStyle, entry.value))
	}
	if changed == 0 {
		fmt.Fprintln(w, "Settings unchanged.")
	}
}

type settingEntry struct {
	key   string
	value string
}

func settingsMapEntries(cfg domainSettings.Configuration) []settingEntry {
	values := settingsMap(cfg)
	entries := make([]settingEntry, 0, len(values))
	for _, key := range settingsStore.Keys() {
		entries = append(entries, settingEntry{key: key, value: values[key]})
	}
	return entries
}

// settingsMap renders every setting as the string a user would type
func settingsMap(cfg domainSettings.Configuration) map[string]string {
	return map[string]string{
		"fuel_mode":      string(cfg.FuelMode),
		"fuel_threshold": trimFloat(cfg.FuelThresholdPrice),
		"fuel_min_cash":  fmt.Sprint(cfg.FuelMinCashReserve),
		"co2_mode":       string(cfg.CO2Mode),
		"co2_threshold":  trimFloat(cfg.CO2ThresholdPrice),
		"co2_min_cash":   fmt.Sprint(cfg.CO2MinCashReserve),
		"auto_depart":    fmt.Sprint(cfg.AutoDepart),
		"check_interval": fmt.Sprint(cfg.CheckIntervalSeconds),
	}
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
