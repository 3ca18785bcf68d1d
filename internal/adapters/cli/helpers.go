package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	grpcAdapter "github.com/andrescamacho/shippingmanager-go/internal/adapters/grpc"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/config"
	"github.com/andrescamacho/shippingmanager-go/pkg/utils"
)

// defaultRPCTimeout bounds quick control calls; run-now overrides it
const defaultRPCTimeout = 10 * time.Second

// withDaemon connects to the daemon socket and runs fn with a bounded context
func withDaemon(timeout time.Duration, fn func(ctx context.Context, client *grpcAdapter.DaemonClient) error) error {
	client, err := grpcAdapter.NewDaemonClient(socketPath)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, client)
}

// rpcError turns an RPC failure into a readable CLI error
func rpcError(action string, err error) error {
	return fmt.Errorf("failed to %s: %s", action, grpcAdapter.ErrorMessage(err))
}

// loadConfig reads config.yaml from --config or the default search path
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// parseDate parses YYYY-MM-DD; endOfDay moves the result to 23:59:59
func parseDate(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", value, err)
	}
	if endOfDay {
		parsed = parsed.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return &parsed, nil
}

// parseAssignments splits key=value arguments
func parseAssignments(args []string) (map[string]string, error) {
	updates := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", arg)
		}
		updates[key] = strings.TrimSpace(value)
	}
	return updates, nil
}

// formatPrice renders a per-ton price, coloured against the threshold
func formatPrice(price *float64, threshold float64) string {
	if price == nil {
		return paint(labelStyle, "n/a")
	}
	text := fmt.Sprintf("$%s/t", utils.GroupThousands(int64(*price)))
	if *price <= threshold {
		return paint(goodStyle, text)
	}
	return paint(badStyle, text)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatState(state string) string {
	switch state {
	case "ACTIVE":
		return paint(goodStyle, state)
	case "AWAITING_BRIDGE_READY", "AWAITING_LOGIN":
		return paint(warnStyle, state)
	case "STOPPED":
		return paint(badStyle, state)
	default:
		return state
	}
}

func printStatus(w io.Writer, view *grpcAdapter.StatusView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "State:\t%s\n", formatState(view.State))
	fmt.Fprintf(tw, "Since:\t%s\n", formatTime(&view.UpdatedAt))
	if view.StartedAt != nil {
		fmt.Fprintf(tw, "Started:\t%s\n", formatTime(view.StartedAt))
	}
	if view.StoppedAt != nil {
		fmt.Fprintf(tw, "Stopped:\t%s\n", formatTime(view.StoppedAt))
	}
	if view.LastError != "" {
		fmt.Fprintf(tw, "Last error:\t%s\n", paint(badStyle, view.LastError))
	}
	if view.CircuitState != "" {
		fmt.Fprintf(tw, "Bridge circuit:\t%s\n", view.CircuitState)
	}
	fmt.Fprintf(tw, "Session:\t%s\n", view.Session.Summary)
	fmt.Fprintf(tw, "Bunker bought:\t%s fuel, %s CO2 for %s\n",
		utils.FormatTons(view.Session.FuelPurchasedTons),
		utils.FormatTons(view.Session.CO2PurchasedTons),
		utils.FormatCash(view.Session.BunkerSpend))
	tw.Flush()

	fmt.Fprintln(w)
	printSettings(w, view.Settings)

	if view.LastCycle != nil {
		fmt.Fprintln(w)
		printCycle(w, view.LastCycle)
	}
}

func printSettings(w io.Writer, cfg settings.Configuration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Fuel:\tmode=%s\tthreshold=$%s/t\tmin cash=%s\n",
		cfg.FuelMode, utils.GroupThousands(int64(cfg.FuelThresholdPrice)), utils.FormatCash(float64(cfg.FuelMinCashReserve)))
	fmt.Fprintf(tw, "CO2:\tmode=%s\tthreshold=$%s/t\tmin cash=%s\n",
		cfg.CO2Mode, utils.GroupThousands(int64(cfg.CO2ThresholdPrice)), utils.FormatCash(float64(cfg.CO2MinCashReserve)))
	fmt.Fprintf(tw, "Dispatch:\tauto_depart=%t\tinterval=%ds\n", cfg.AutoDepart, cfg.CheckIntervalSeconds)
	tw.Flush()
}

func printCycle(w io.Writer, cycle *grpcAdapter.CycleView) {
	fmt.Fprintf(w, "Last cycle %s (%s, %s)\n", cycle.CycleID, cycle.Trigger, formatTime(&cycle.StartedAt))
	fmt.Fprintf(w, "  %s\n", cycle.Headline)
	if cycle.DataUnavailable {
		if cycle.DataError != "" {
			fmt.Fprintf(w, "  %s\n", paint(badStyle, cycle.DataError))
		}
		return
	}

	printPurchase(w, cycle.Fuel)
	printPurchase(w, cycle.CO2)
	if cycle.FleetError != "" {
		fmt.Fprintf(w, "  fleet: %s\n", paint(badStyle, cycle.FleetError))
	}
	for _, d := range cycle.Departures {
		if d.Success {
			fmt.Fprintf(w, "  %s %s +%s\n", paint(goodStyle, "✓"), d.VesselName, utils.FormatCash(d.Income))
		} else {
			fmt.Fprintf(w, "  %s %s %s\n", paint(badStyle, "✗"), d.VesselName, d.Error)
		}
	}
}

func printPurchase(w io.Writer, p grpcAdapter.PurchaseView) {
	switch p.Status {
	case "bought":
		fmt.Fprintf(w, "  %s: bought %s at $%s/t\n", p.Commodity, utils.FormatTons(float64(p.AmountTons)), utils.GroupThousands(int64(p.UnitPrice)))
	case "failed":
		fmt.Fprintf(w, "  %s: %s\n", p.Commodity, paint(badStyle, "purchase failed: "+p.Error))
	default:
		reason := p.Reason
		if reason == "" {
			reason = "nothing to do"
		}
		fmt.Fprintf(w, "  %s: skipped (%s)\n", p.Commodity, reason)
	}
}
