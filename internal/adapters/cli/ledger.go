package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/andrescamacho/shippingmanager-go/internal/adapters/persistence"
	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	appLedger "github.com/andrescamacho/shippingmanager-go/internal/application/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/application/ledger/queries"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/database"
	"github.com/andrescamacho/shippingmanager-go/pkg/utils"
)

// NewLedgerCommand creates the ledger command with subcommands
func NewLedgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Persisted purchase and departure history",
		Long: `View the bunker purchases and vessel departures the autopilot recorded.

The ledger is read straight from the database configured in config.yaml, so
these commands do not need the daemon.

Examples:
  shipman ledger list --limit 20
  shipman ledger list --type FUEL_PURCHASE --start-date 2025-01-01
  shipman ledger summary --start-date 2025-01-01 --end-date 2025-01-31`,
	}

	cmd.AddCommand(newLedgerListCommand())
	cmd.AddCommand(newLedgerSummaryCommand())

	return cmd
}

func newLedgerListCommand() *cobra.Command {
	var (
		startDate string
		endDate   string
		category  string
		txType    string
		vesselID  int64
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long: `List ledger transactions, newest first.

Categories:
  BUNKER_COSTS   - Fuel and CO2 purchases
  ROUTE_INCOME   - Departure income

Transaction Types:
  FUEL_PURCHASE      - Fuel bought by the autopilot
  CO2_PURCHASE       - CO2 certificates bought by the autopilot
  VESSEL_DEPARTURE   - A vessel sent on its route`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := &queries.GetTransactionsQuery{Limit: limit, Offset: offset}

			var err error
			if query.StartDate, err = parseDate(startDate, false); err != nil {
				return err
			}
			if query.EndDate, err = parseDate(endDate, true); err != nil {
				return err
			}
			if category != "" {
				c := strings.ToUpper(category)
				query.Category = &c
			}
			if txType != "" {
				t := strings.ToUpper(txType)
				query.TransactionType = &t
			}
			if vesselID > 0 {
				query.VesselID = &vesselID
			}

			return withLedger(func(ctx context.Context, mediator common.Mediator) error {
				result, err := mediator.Send(ctx, query)
				if err != nil {
					return fmt.Errorf("failed to query transactions: %w", err)
				}
				displayTransactionList(cmd.OutOrStdout(), result.(*queries.GetTransactionsResponse))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&txType, "type", "", "Filter by transaction type")
	cmd.Flags().Int64Var(&vesselID, "vessel", 0, "Filter by vessel ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of transactions to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of transactions to skip")

	return cmd
}

func newLedgerSummaryCommand() *cobra.Command {
	var (
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Totals per transaction type",
		Long: `Aggregate the ledger per transaction type and show income, bunker
spend and the net result for the date range (default: everything).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := &queries.GetLedgerSummaryQuery{}

			var err error
			if query.StartDate, err = parseDate(startDate, false); err != nil {
				return err
			}
			if query.EndDate, err = parseDate(endDate, true); err != nil {
				return err
			}

			return withLedger(func(ctx context.Context, mediator common.Mediator) error {
				result, err := mediator.Send(ctx, query)
				if err != nil {
					return fmt.Errorf("failed to summarize ledger: %w", err)
				}
				displayLedgerSummary(cmd.OutOrStdout(), result.(*queries.GetLedgerSummaryResponse))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD)")

	return cmd
}

// withLedger opens the configured database and hands fn a mediator with the
// ledger handlers registered
func withLedger(fn func(ctx context.Context, mediator common.Mediator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	return runLedger(db, fn)
}

func runLedger(db *gorm.DB, fn func(ctx context.Context, mediator common.Mediator) error) error {
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	mediator := common.NewMediator()
	repo := persistence.NewGormTransactionRepository(db)
	if err := appLedger.RegisterHandlers(mediator, repo, shared.NewRealClock()); err != nil {
		return fmt.Errorf("failed to register ledger handlers: %w", err)
	}

	return fn(context.Background(), mediator)
}

func displayTransactionList(w io.Writer, response *queries.GetTransactionsResponse) {
	if len(response.Transactions) == 0 {
		fmt.Fprintln(w, "No transactions found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tAMOUNT\tTONS\tVESSEL\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t----\t------\t----\t------\t-----------")
	for _, tx := range response.Transactions {
		tons := "-"
		if tx.QuantityTons != 0 {
			tons = utils.FormatTons(tx.QuantityTons)
		}
		vessel := "-"
		if tx.VesselName != "" {
			vessel = tx.VesselName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Timestamp.Local().Format("2006-01-02 15:04"),
			tx.Type,
			utils.FormatCash(tx.Amount),
			tons,
			vessel,
			tx.Description,
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nShowing %d of %d transactions\n", len(response.Transactions), response.Total)
}

func displayLedgerSummary(w io.Writer, response *queries.GetLedgerSummaryResponse) {
	if len(response.Rows) == 0 {
		fmt.Fprintln(w, "No transactions found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCOUNT\tAMOUNT\tTONS")
	fmt.Fprintln(tw, "----\t-----\t------\t----")
	for _, row := range response.Rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", row.Type, row.Count, utils.FormatCash(row.TotalAmount), utils.FormatTons(row.TotalTons))
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Income: %s\n", utils.FormatCash(response.TotalIncome))
	fmt.Fprintf(w, "Bunker: %s\n", utils.FormatCash(response.TotalSpend))
	net := utils.FormatCash(response.Net)
	if response.Net >= 0 {
		net = paint(goodStyle, net)
	} else {
		net = paint(badStyle, net)
	}
	fmt.Fprintf(w, "Net:    %s\n", net)
}
