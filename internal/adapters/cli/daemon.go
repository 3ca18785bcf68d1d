package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	grpcAdapter "github.com/andrescamacho/shippingmanager-go/internal/adapters/grpc"
	"github.com/andrescamacho/shippingmanager-go/pkg/utils"
)

// runNowTimeout covers a full cycle including paced departures
const runNowTimeout = 5 * time.Minute

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show autopilot state, session and last cycle",
		Long: `Show the controller state, session counters, active settings and the
summary of the last cycle.

With --refresh the daemon also reads the bunker and current prices from the
game page without deciding or buying anything.

Examples:
  shipman status
  shipman status --refresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(defaultRPCTimeout, func(ctx context.Context, client *grpcAdapter.DaemonClient) error {
				view, err := client.Status(ctx)
				if err != nil {
					return rpcError("get status", err)
				}
				printStatus(cmd.OutOrStdout(), view)

				if !refresh {
					return nil
				}
				fresh, err := client.Refresh(ctx)
				if err != nil {
					return rpcError("refresh", err)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				printRefresh(cmd.OutOrStdout(), fresh, view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Read bunker and prices from the game now")

	return cmd
}

// NewStartCommand creates the start command
func NewStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the autopilot loop",
		Long: `Start the autopilot. The daemon waits for the game page and a logged-in
session, then runs a cycle every check_interval seconds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(defaultRPCTimeout, func(ctx context.Context, client *grpcAdapter.DaemonClient) error {
				view, err := client.Start(ctx)
				if err != nil {
					return rpcError("start autopilot", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Autopilot started (%s)\n", formatState(view.State))
				return nil
			})
		},
	}
}

// NewStopCommand creates the stop command
func NewStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the autopilot loop",
		Long: `Stop the autopilot. A cycle in progress is interrupted between actions;
session counters are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(defaultRPCTimeout, func(ctx context.Context, client *grpcAdapter.DaemonClient) error {
				view, err := client.Stop(ctx)
				if err != nil {
					return rpcError("stop autopilot", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Autopilot stopped. Session: %s\n", view.Session.Summary)
				return nil
			})
		},
	}
}

// NewRunNowCommand creates the run-now command
func NewRunNowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-now",
		Short: "Run one cycle immediately",
		Long: `Run one replenishment and dispatch cycle now and print its summary.

If a scheduled cycle is running, the request waits for it to finish. Only one
request may wait at a time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(runNowTimeout, func(ctx context.Context, client *grpcAdapter.DaemonClient) error {
				cycle, err := client.RunNow(ctx)
				if err != nil {
					return rpcError("run cycle", err)
				}
				printCycle(cmd.OutOrStdout(), cycle)
				return nil
			})
		},
	}
}

// NewSessionCommand creates the session command group
func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session counters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset the session counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(defaultRPCTimeout, func(ctx context.Context, client *grpcAdapter.DaemonClient) error {
				view, err := client.ResetSession(ctx)
				if err != nil {
					return rpcError("reset session", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session reset: %s\n", view.Session.Summary)
				return nil
			})
		},
	})

	return cmd
}

func printRefresh(w io.Writer, fresh *grpcAdapter.RefreshView, view *grpcAdapter.StatusView) {
	if fresh.Bunker != nil {
		b := fresh.Bunker
		fmt.Fprintf(w, "Bunker: fuel %s / %s, CO2 %s / %s, cash %s\n",
			utils.FormatTons(b.FuelTons), utils.FormatTons(b.MaxFuelTons),
			utils.FormatTons(b.CO2Tons), utils.FormatTons(b.MaxCO2Tons),
			utils.FormatCash(float64(b.Cash)))
	}
	if fresh.Prices != nil {
		p := fresh.Prices
		fmt.Fprintf(w, "Prices (%s): fuel %s, CO2 %s\n", p.Slot,
			formatPrice(p.FuelPrice, view.Settings.FuelThresholdPrice),
			formatPrice(p.CO2Price, view.Settings.CO2ThresholdPrice))
	}
}
