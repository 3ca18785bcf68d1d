package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
	"gorm.io/gorm"

	"github.com/andrescamacho/shippingmanager-go/internal/adapters/persistence"
	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	appLedger "github.com/andrescamacho/shippingmanager-go/internal/application/ledger"
	ledgerQuery "github.com/andrescamacho/shippingmanager-go/internal/application/ledger/queries"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/controller"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/database"
	settingsStore "github.com/andrescamacho/shippingmanager-go/internal/infrastructure/settings"
	"github.com/andrescamacho/shippingmanager-go/test/helpers"
)

const waitTimeout = 2 * time.Second

type autopilotContext struct {
	bridge   *helpers.MockBridge
	sink     *helpers.RecordingSink
	settings *settingsStore.Store
	dir      string

	db         *gorm.DB
	mediator   common.Mediator
	ctrl       *autopilot.Controller
	opts       autopilot.Options
	summary    *autopilot.CycleSummary
	runCtx     context.Context
	cancelRun  context.CancelFunc
	controlErr error
}

func (ac *autopilotContext) reset() error {
	ac.teardown()

	dir, err := os.MkdirTemp("", "shipman-bdd")
	if err != nil {
		return err
	}
	store, err := settingsStore.Open(filepath.Join(dir, "settings.yaml"), nil)
	if err != nil {
		return err
	}

	ac.dir = dir
	ac.settings = store
	ac.bridge = helpers.NewMockBridge()
	ac.sink = helpers.NewRecordingSink()
	ac.opts = autopilot.Options{
		ReadyPollInterval: 5 * time.Millisecond,
		ReadyMaxAttempts:  20,
		LoginPollInterval: 5 * time.Millisecond,
		LoginMaxAttempts:  20,
		DeparturePacing:   -1,
	}
	ac.runCtx, ac.cancelRun = context.WithCancel(context.Background())
	return nil
}

func (ac *autopilotContext) teardown() {
	if ac.cancelRun != nil {
		ac.cancelRun()
	}
	if ac.ctrl != nil {
		ac.ctrl.Wait()
	}
	if ac.db != nil {
		database.Close(ac.db)
	}
	if ac.dir != "" {
		os.RemoveAll(ac.dir)
	}
	*ac = autopilotContext{}
}

// controller builds the controller lazily so Given steps can still tune the bridge
func (ac *autopilotContext) controller() *autopilot.Controller {
	if ac.ctrl == nil {
		ac.ctrl = autopilot.NewController(ac.bridge, ac.settings, ac.sink, ac.mediator, nil, nil, ac.opts)
	}
	return ac.ctrl
}

// Game steps

func (ac *autopilotContext) theGameShows(fuel, maxFuel, co2, maxCO2 float64) error {
	ac.bridge.Fuel, ac.bridge.MaxFuel = fuel, maxFuel
	ac.bridge.CO2, ac.bridge.MaxCO2 = co2, maxCO2
	return nil
}

func (ac *autopilotContext) theCompanyHasCash(cash int64) error {
	ac.bridge.Cash = cash
	return nil
}

func (ac *autopilotContext) pricesAre(fuel, co2 float64) error {
	ac.bridge.SetPrices(bunker.Price(fuel), bunker.Price(co2))
	return nil
}

func (ac *autopilotContext) theAutopilotSettingsAre(table *godog.Table) error {
	updates := make(map[string]string, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return fmt.Errorf("settings rows need a key and a value")
		}
		updates[row.Cells[0].Value] = row.Cells[1].Value
	}
	_, err := ac.settings.Apply(updates)
	return err
}

func (ac *autopilotContext) theAutopilotSettingIs(key, value string) error {
	_, err := ac.settings.Apply(map[string]string{key: value})
	return err
}

func (ac *autopilotContext) theGameRejectsPurchases(commodity, reason string) error {
	c, err := bunker.ParseCommodity(commodity)
	if err != nil {
		return err
	}
	ac.bridge.PurchaseErr[c] = shared.NewRemoteRejectionError("purchase", reason)
	return nil
}

func (ac *autopilotContext) theGamePageIsNotLoaded() error {
	ac.bridge.SnapshotErr = shared.NewBridgeUnavailableError("read bunker", fmt.Errorf("page not loaded"))
	return nil
}

func (ac *autopilotContext) theFleetContains(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		id, err := strconv.ParseInt(cellValue(table, row, "id"), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid vessel id: %w", err)
		}
		vessel := helpers.PortVessel(id, cellValue(table, row, "name"))
		vessel.Status = fleet.ParseVesselStatus(cellValue(table, row, "status"))
		ac.bridge.Vessels = append(ac.bridge.Vessels, vessel)
	}
	return nil
}

// cellValue looks a cell up by the column name in the header row
func cellValue(table *godog.Table, row *messages.PickleTableRow, column string) string {
	if len(table.Rows) == 0 {
		return ""
	}
	for i, cell := range table.Rows[0].Cells {
		if cell.Value == column && i < len(row.Cells) {
			return row.Cells[i].Value
		}
	}
	return ""
}

func (ac *autopilotContext) theDepartureOfVesselFails(id int64, reason string) error {
	for _, v := range ac.bridge.Vessels {
		if v.ID == id {
			ac.bridge.DepartureResults[id] = fleet.FailedDeparture(v, reason)
			return nil
		}
	}
	return fmt.Errorf("vessel %d is not in the fleet", id)
}

func (ac *autopilotContext) theFleetScriptCrashes() error {
	ac.bridge.PanicOnFleet = true
	return nil
}

func (ac *autopilotContext) theGamePageLoadsAfter(checks int) error {
	ac.bridge.ReadyAfter = checks
	return nil
}

func (ac *autopilotContext) theSessionIsLoggedOut() error {
	ac.bridge.LoginAfter = 1_000_000
	ac.bridge.LoginSucceeds = true
	return nil
}

func (ac *autopilotContext) theSessionNeverLogsIn() error {
	ac.bridge.NeverLoggedIn = true
	ac.opts.LoginMaxAttempts = 3
	return nil
}

func (ac *autopilotContext) autoLoginCredentialsAreConfigured() error {
	ac.opts.Email = "captain@example.com"
	ac.opts.Password = "hunter2"
	return nil
}

func (ac *autopilotContext) aControllerWiredToALedgerDatabase() error {
	db, err := database.NewTestConnection()
	if err != nil {
		return err
	}
	med := common.NewMediator()
	if err := appLedger.RegisterHandlers(med, persistence.NewGormTransactionRepository(db), nil); err != nil {
		return err
	}
	ac.db = db
	ac.mediator = med
	return nil
}

// When steps

func (ac *autopilotContext) oneCycleRuns() error {
	orchestrator := autopilot.NewCycleOrchestrator(ac.bridge, ac.sink, nil, -1)
	ac.summary = orchestrator.Run(context.Background(), ac.settings.Current(), autopilot.CycleHooks{})
	return nil
}

func (ac *autopilotContext) theOperatorStartsTheAutopilot() error {
	return ac.controller().Start(ac.runCtx)
}

func (ac *autopilotContext) theFirstCycleCompletes() error {
	if !helpers.WaitFor(waitTimeout, func() bool {
		return len(ac.sink.OfType(autopilot.EventCycleCompleted)) >= 1
	}) {
		return fmt.Errorf("no cycle completed within %s", waitTimeout)
	}
	ac.summary = ac.controller().LastCycle()
	return nil
}

func (ac *autopilotContext) theOperatorStopsTheAutopilot() error {
	return ac.controller().Stop()
}

func (ac *autopilotContext) theOperatorRunsACycleNow() error {
	summary, err := ac.controller().RunNow(context.Background())
	if err != nil {
		return err
	}
	ac.summary = summary
	return nil
}

func (ac *autopilotContext) theOperatorResetsTheSession() error {
	ac.controller().ResetSession()
	return nil
}

// Then steps

func (ac *autopilotContext) purchasesOf(commodity string) ([]helpers.BridgeCall, error) {
	c, err := bunker.ParseCommodity(commodity)
	if err != nil {
		return nil, err
	}
	var out []helpers.BridgeCall
	for _, call := range ac.bridge.CallsTo("Purchase") {
		if call.Commodity == c {
			out = append(out, call)
		}
	}
	return out, nil
}

func (ac *autopilotContext) theGameReceivesAPurchaseOf(commodity string, tons int64) error {
	calls, err := ac.purchasesOf(commodity)
	if err != nil {
		return err
	}
	if len(calls) != 1 {
		return fmt.Errorf("expected one %s purchase, got %d", commodity, len(calls))
	}
	if calls[0].Tons != tons {
		return fmt.Errorf("expected a %s purchase of %dt, got %dt", commodity, tons, calls[0].Tons)
	}
	return nil
}

func (ac *autopilotContext) theGameReceivesNoPurchaseOf(commodity string) error {
	calls, err := ac.purchasesOf(commodity)
	if err != nil {
		return err
	}
	if len(calls) != 0 {
		return fmt.Errorf("expected no %s purchase, got %d", commodity, len(calls))
	}
	return nil
}

func (ac *autopilotContext) theGameReceivesNoPurchaseAtAll() error {
	if n := ac.bridge.WriteCount(); n != 0 {
		return fmt.Errorf("expected no write calls, got %d", n)
	}
	return nil
}

func (ac *autopilotContext) theFleetIsNeverRead() error {
	if n := len(ac.bridge.CallsTo("ReadFleet")); n != 0 {
		return fmt.Errorf("expected no fleet read, got %d", n)
	}
	return nil
}

func (ac *autopilotContext) theCompanyCashIs(cash int64) error {
	if _, _, got := ac.bridge.State(); got != cash {
		return fmt.Errorf("expected cash %d, got %d", cash, got)
	}
	return nil
}

func (ac *autopilotContext) theCycleFuelResultIs(status string) error {
	if ac.summary == nil {
		return fmt.Errorf("no cycle has run")
	}
	if got := ac.summary.Fuel.Status(); got != status {
		return fmt.Errorf("expected fuel result %q, got %q", status, got)
	}
	return nil
}

func (ac *autopilotContext) headline() (string, error) {
	if ac.summary == nil {
		return "", fmt.Errorf("no cycle has run")
	}
	return ac.summary.Headline(), nil
}

func (ac *autopilotContext) theCycleHeadlineIs(expected string) error {
	got, err := ac.headline()
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected headline %q, got %q", expected, got)
	}
	return nil
}

func (ac *autopilotContext) theCycleHeadlineStartsWith(prefix string) error {
	got, err := ac.headline()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(got, prefix) {
		return fmt.Errorf("expected headline starting with %q, got %q", prefix, got)
	}
	return nil
}

func (ac *autopilotContext) theCycleHeadlineContains(substr string) error {
	got, err := ac.headline()
	if err != nil {
		return err
	}
	if !strings.Contains(got, substr) {
		return fmt.Errorf("expected headline containing %q, got %q", substr, got)
	}
	return nil
}

func (ac *autopilotContext) aStatusLineContains(substr string) error {
	if !ac.sink.HasStatusContaining(substr) {
		return fmt.Errorf("no status line contains %q; got %q", substr, ac.sink.StatusLines())
	}
	return nil
}

func (ac *autopilotContext) departuresAreRequested(n int) error {
	if got := len(ac.bridge.CallsTo("DepartVessel")); got != n {
		return fmt.Errorf("expected %d departure requests, got %d", n, got)
	}
	return nil
}

func (ac *autopilotContext) theControllerMovedThrough(list string) error {
	var expected []controller.State
	for _, s := range strings.Split(list, ",") {
		expected = append(expected, controller.State(strings.TrimSpace(s)))
	}
	got := ac.sink.States()
	if fmt.Sprint(got) != fmt.Sprint(expected) {
		return fmt.Errorf("expected states %v, got %v", expected, got)
	}
	return nil
}

func (ac *autopilotContext) theStopLeftNoError() error {
	if msg := ac.controller().Status().LastError; msg != "" {
		return fmt.Errorf("expected no stop error, got %q", msg)
	}
	return nil
}

func (ac *autopilotContext) theGameSawLoginAttempts(n int) error {
	if got := ac.bridge.LoginAttempts(); got != n {
		return fmt.Errorf("expected %d login attempts, got %d", n, got)
	}
	return nil
}

func (ac *autopilotContext) theControllerStopsOnItsOwn() error {
	if !helpers.WaitFor(waitTimeout, func() bool {
		return ac.controller().State() == controller.StateStopped
	}) {
		return fmt.Errorf("controller still %s after %s", ac.controller().State(), waitTimeout)
	}
	return nil
}

func (ac *autopilotContext) theStopErrorContains(substr string) error {
	msg := ac.controller().Status().LastError
	if !strings.Contains(msg, substr) {
		return fmt.Errorf("expected stop error containing %q, got %q", substr, msg)
	}
	return nil
}

func (ac *autopilotContext) transactions() ([]*ledgerQuery.TransactionDTO, error) {
	if ac.mediator == nil {
		return nil, fmt.Errorf("no ledger database wired")
	}
	resp, err := ac.mediator.Send(context.Background(), &ledgerQuery.GetTransactionsQuery{Limit: 100})
	if err != nil {
		return nil, err
	}
	list, ok := resp.(*ledgerQuery.GetTransactionsResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type %T", resp)
	}
	return list.Transactions, nil
}

func (ac *autopilotContext) theLedgerHoldsTransactions(n int) error {
	txs, err := ac.transactions()
	if err != nil {
		return err
	}
	if len(txs) != n {
		return fmt.Errorf("expected %d transactions, got %d", n, len(txs))
	}
	return nil
}

func (ac *autopilotContext) theLedgerHoldsATransactionOfTons(txType string, tons float64) error {
	txs, err := ac.transactions()
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.Type == txType && tx.QuantityTons == tons {
			return nil
		}
	}
	return fmt.Errorf("no %s transaction of %.0ft", txType, tons)
}

func (ac *autopilotContext) theLedgerHoldsATransaction(txType string) error {
	txs, err := ac.transactions()
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.Type == txType {
			return nil
		}
	}
	return fmt.Errorf("no %s transaction", txType)
}

func (ac *autopilotContext) theSessionShows(departures int, fuelTons float64) error {
	totals := ac.controller().Session()
	if totals.DepartureCount != departures {
		return fmt.Errorf("expected %d session departures, got %d", departures, totals.DepartureCount)
	}
	if totals.FuelPurchasedTons != fuelTons {
		return fmt.Errorf("expected %.0ft fuel bought in session, got %.0ft", fuelTons, totals.FuelPurchasedTons)
	}
	return nil
}

func (ac *autopilotContext) theManualCycleIDStartsWith(prefix string) error {
	if ac.summary == nil {
		return fmt.Errorf("no cycle has run")
	}
	if !strings.HasPrefix(ac.summary.CycleID, prefix) {
		return fmt.Errorf("expected cycle id starting with %q, got %q", prefix, ac.summary.CycleID)
	}
	return nil
}

func InitializeAutopilotScenario(ctx *godog.ScenarioContext) {
	ac := &autopilotContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, ac.reset()
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		ac.teardown()
		return ctx, nil
	})

	// Game state
	ctx.Step(`^the game shows ([\d.]+)t of fuel out of ([\d.]+)t and ([\d.]+)t of CO2 out of ([\d.]+)t$`, ac.theGameShows)
	ctx.Step(`^the company has \$(\d+) in cash$`, ac.theCompanyHasCash)
	ctx.Step(`^fuel costs \$([\d.]+) per ton and CO2 costs \$([\d.]+) per ton$`, ac.pricesAre)
	ctx.Step(`^the autopilot settings are:$`, ac.theAutopilotSettingsAre)
	ctx.Step(`^the autopilot setting "([^"]*)" is "([^"]*)"$`, ac.theAutopilotSettingIs)
	ctx.Step(`^the game rejects (fuel|co2) purchases with "([^"]*)"$`, ac.theGameRejectsPurchases)
	ctx.Step(`^the game page is not loaded$`, ac.theGamePageIsNotLoaded)
	ctx.Step(`^the fleet contains:$`, ac.theFleetContains)
	ctx.Step(`^the departure of vessel (\d+) fails with "([^"]*)"$`, ac.theDepartureOfVesselFails)
	ctx.Step(`^the fleet script crashes$`, ac.theFleetScriptCrashes)
	ctx.Step(`^the game page loads after (\d+) checks$`, ac.theGamePageLoadsAfter)
	ctx.Step(`^the session is logged out$`, ac.theSessionIsLoggedOut)
	ctx.Step(`^the session never logs in$`, ac.theSessionNeverLogsIn)
	ctx.Step(`^auto-login credentials are configured$`, ac.autoLoginCredentialsAreConfigured)
	ctx.Step(`^a controller wired to a ledger database$`, ac.aControllerWiredToALedgerDatabase)

	// Actions
	ctx.Step(`^one cycle runs$`, ac.oneCycleRuns)
	ctx.Step(`^the operator starts the autopilot$`, ac.theOperatorStartsTheAutopilot)
	ctx.Step(`^the first cycle completes$`, ac.theFirstCycleCompletes)
	ctx.Step(`^the operator stops the autopilot$`, ac.theOperatorStopsTheAutopilot)
	ctx.Step(`^the operator runs a cycle now$`, ac.theOperatorRunsACycleNow)
	ctx.Step(`^the operator resets the session$`, ac.theOperatorResetsTheSession)

	// Outcomes
	ctx.Step(`^the game receives a (fuel|co2) purchase of (\d+) tons$`, ac.theGameReceivesAPurchaseOf)
	ctx.Step(`^the game receives no (fuel|co2) purchase$`, ac.theGameReceivesNoPurchaseOf)
	ctx.Step(`^the game receives no purchase at all$`, ac.theGameReceivesNoPurchaseAtAll)
	ctx.Step(`^the fleet is never read$`, ac.theFleetIsNeverRead)
	ctx.Step(`^the company cash is \$(\d+)$`, ac.theCompanyCashIs)
	ctx.Step(`^the cycle fuel result is "([^"]*)"$`, ac.theCycleFuelResultIs)
	ctx.Step(`^the cycle headline is "([^"]*)"$`, ac.theCycleHeadlineIs)
	ctx.Step(`^the cycle headline starts with "([^"]*)"$`, ac.theCycleHeadlineStartsWith)
	ctx.Step(`^the cycle headline contains "([^"]*)"$`, ac.theCycleHeadlineContains)
	ctx.Step(`^a status line contains "([^"]*)"$`, ac.aStatusLineContains)
	ctx.Step(`^(\d+) departures are requested$`, ac.departuresAreRequested)
	ctx.Step(`^the controller moved through "([^"]*)"$`, ac.theControllerMovedThrough)
	ctx.Step(`^the stop left no error$`, ac.theStopLeftNoError)
	ctx.Step(`^the game saw (\d+) login attempts?$`, ac.theGameSawLoginAttempts)
	ctx.Step(`^the controller stops on its own$`, ac.theControllerStopsOnItsOwn)
	ctx.Step(`^the stop error contains "([^"]*)"$`, ac.theStopErrorContains)
	ctx.Step(`^the ledger holds (\d+) transactions$`, ac.theLedgerHoldsTransactions)
	ctx.Step(`^the ledger holds a "([^"]*)" transaction of ([\d.]+) tons$`, ac.theLedgerHoldsATransactionOfTons)
	ctx.Step(`^the ledger holds a "([^"]*)" transaction$`, ac.theLedgerHoldsATransaction)
	ctx.Step(`^the session shows (\d+) departures? and ([\d.]+) tons of fuel bought$`, ac.theSessionShows)
	ctx.Step(`^the manual cycle id starts with "([^"]*)"$`, ac.theManualCycleIDStartsWith)
}
