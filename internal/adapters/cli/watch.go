package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	grpcAdapter "github.com/andrescamacho/shippingmanager-go/internal/adapters/grpc"
	"github.com/andrescamacho/shippingmanager-go/pkg/utils"
)

const (
	watchStatusInterval = 5 * time.Second
	watchLogLines       = 10
)

// dashboardClient is the slice of the daemon client the dashboard drives
type dashboardClient interface {
	Status(ctx context.Context) (*grpcAdapter.StatusView, error)
	Start(ctx context.Context) (*grpcAdapter.StatusView, error)
	Stop(ctx context.Context) (*grpcAdapter.StatusView, error)
	ResetSession(ctx context.Context) (*grpcAdapter.StatusView, error)
	RunNow(ctx context.Context) (*grpcAdapter.CycleView, error)
}

// NewWatchCommand creates the live dashboard command
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live autopilot dashboard",
		Long: `Open a live dashboard of bunker levels, prices, session counters and
the autopilot status log.

Keys:
  r   run a cycle now
  s   start or stop the autopilot
  x   reset session counters
  q   quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := grpcAdapter.NewDaemonClient(socketPath)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			events, streamErrs, err := client.Subscribe(ctx)
			if err != nil {
				return rpcError("subscribe", err)
			}

			program := tea.NewProgram(newDashboard(client, events, streamErrs), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}

type statusMsg struct {
	view *grpcAdapter.StatusView
	err  error
}

type eventMsg grpcAdapter.EventView

type streamEndedMsg struct {
	err error
}

type actionMsg struct {
	text string
	err  error
}

type statusTickMsg time.Time

type logLine struct {
	at    time.Time
	level string
	text  string
}

type dashboard struct {
	client     dashboardClient
	events     <-chan grpcAdapter.EventView
	streamErrs <-chan error

	status  *grpcAdapter.StatusView
	bunker  *grpcAdapter.BunkerView
	prices  *grpcAdapter.PricesView
	session *grpcAdapter.SessionView
	cycle   *grpcAdapter.CycleView
	log     []logLine

	busy       bool
	err        error
	streamDown bool
	width      int
}

func newDashboard(client dashboardClient, events <-chan grpcAdapter.EventView, streamErrs <-chan error) *dashboard {
	return &dashboard{client: client, events: events, streamErrs: streamErrs}
}

func (m *dashboard) Init() tea.Cmd {
	return tea.Batch(m.fetchStatus(), m.waitForEvent(), statusTick())
}

func (m *dashboard) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultRPCTimeout)
		defer cancel()
		view, err := m.client.Status(ctx)
		return statusMsg{view: view, err: err}
	}
}

func (m *dashboard) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			var err error
			if m.streamErrs != nil {
				err = <-m.streamErrs
			}
			return streamEndedMsg{err: err}
		}
		return eventMsg(event)
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(watchStatusInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (m *dashboard) action(name string, timeout time.Duration, call func(ctx context.Context) (string, error)) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := call(ctx)
		if err != nil {
			return actionMsg{err: fmt.Errorf("%s: %s", name, grpcAdapter.ErrorMessage(err))}
		}
		return actionMsg{text: text}
	}
}

func (m *dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case statusMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("status: %s", grpcAdapter.ErrorMessage(msg.err))
			return m, nil
		}
		m.err = nil
		m.status = msg.view
		m.session = &msg.view.Session
		if msg.view.LastCycle != nil {
			m.applyCycle(msg.view.LastCycle)
		}

	case statusTickMsg:
		return m, tea.Batch(m.fetchStatus(), statusTick())

	case eventMsg:
		m.applyEvent(grpcAdapter.EventView(msg))
		return m, m.waitForEvent()

	case streamEndedMsg:
		m.streamDown = true
		if msg.err != nil {
			m.err = fmt.Errorf("event stream: %s", grpcAdapter.ErrorMessage(msg.err))
		}

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.appendLog(time.Now(), "INFO", msg.text)
		return m, m.fetchStatus()
	}
	return m, nil
}

func (m *dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "r":
		return m, m.action("run-now", runNowTimeout, func(ctx context.Context) (string, error) {
			cycle, err := m.client.RunNow(ctx)
			if err != nil {
				return "", err
			}
			return cycle.Headline, nil
		})
	case "s":
		if m.status != nil && isRunningState(m.status.State) {
			return m, m.action("stop", defaultRPCTimeout, func(ctx context.Context) (string, error) {
				_, err := m.client.Stop(ctx)
				return "Autopilot stopped", err
			})
		}
		return m, m.action("start", defaultRPCTimeout, func(ctx context.Context) (string, error) {
			_, err := m.client.Start(ctx)
			return "Autopilot started", err
		})
	case "x":
		return m, m.action("reset", defaultRPCTimeout, func(ctx context.Context) (string, error) {
			_, err := m.client.ResetSession(ctx)
			return "Session counters reset", err
		})
	}
	return m, nil
}

func (m *dashboard) applyEvent(e grpcAdapter.EventView) {
	if e.Bunker != nil {
		m.bunker = e.Bunker
	}
	if e.Prices != nil {
		m.prices = e.Prices
	}
	if e.Session != nil {
		m.session = e.Session
	}
	if e.Cycle != nil {
		m.applyCycle(e.Cycle)
	}
	if e.ToState != "" && m.status != nil {
		m.status.State = e.ToState
	}
	if e.Type == "STATUS" && e.Message != "" {
		m.appendLog(e.At, e.Level, e.Message)
	}
}

func (m *dashboard) applyCycle(c *grpcAdapter.CycleView) {
	m.cycle = c
	if c.Bunker != nil {
		m.bunker = c.Bunker
	}
	if c.Prices != nil {
		m.prices = c.Prices
	}
}

func (m *dashboard) appendLog(at time.Time, level, text string) {
	if at.IsZero() {
		at = time.Now()
	}
	m.log = append(m.log, logLine{at: at, level: level, text: text})
	if len(m.log) > watchLogLines {
		m.log = m.log[len(m.log)-watchLogLines:]
	}
}

func isRunningState(state string) bool {
	switch state {
	case "AWAITING_BRIDGE_READY", "AWAITING_LOGIN", "ACTIVE":
		return true
	}
	return false
}

func (m *dashboard) View() string {
	var b strings.Builder

	state := "connecting..."
	if m.status != nil {
		state = formatState(m.status.State)
	}
	fmt.Fprintf(&b, "%s  %s\n\n", paint(titleStyle, "Shipping Manager autopilot"), state)

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPanel("Bunker", m.bunkerLines()),
		" ",
		m.renderPanel("Prices", m.priceLines()),
		" ",
		m.renderPanel("Session", m.sessionLines()),
	)
	b.WriteString(panels)
	b.WriteString("\n")

	if m.cycle != nil {
		fmt.Fprintf(&b, "\n%s %s\n", paint(labelStyle, "Last cycle:"), m.cycle.Headline)
	}

	b.WriteString("\n")
	if len(m.log) == 0 {
		b.WriteString(paint(labelStyle, "No status messages yet") + "\n")
	}
	for _, line := range m.log {
		fmt.Fprintf(&b, "%s %s\n", paint(labelStyle, line.at.Local().Format("15:04:05")), colourByLevel(line.level, line.text))
	}

	if m.err != nil {
		fmt.Fprintf(&b, "\n%s\n", paint(badStyle, m.err.Error()))
	}
	if m.streamDown {
		fmt.Fprintf(&b, "%s\n", paint(warnStyle, "event stream closed, showing polled status only"))
	}

	help := "r run now • s start/stop • x reset session • q quit"
	if m.busy {
		help = "working..."
	}
	fmt.Fprintf(&b, "\n%s\n", paint(helpStyle, help))
	return b.String()
}

func (m *dashboard) renderPanel(title string, lines []string) string {
	body := paint(titleStyle, title) + "\n" + strings.Join(lines, "\n")
	if noColor {
		return body + "\n"
	}
	return panelStyle.Render(body)
}

func (m *dashboard) bunkerLines() []string {
	if m.bunker == nil {
		return []string{paint(labelStyle, "waiting for data")}
	}
	return []string{
		fmt.Sprintf("Fuel %s / %s", utils.FormatTons(m.bunker.FuelTons), utils.FormatTons(m.bunker.MaxFuelTons)),
		fmt.Sprintf("CO2  %s / %s", utils.FormatTons(m.bunker.CO2Tons), utils.FormatTons(m.bunker.MaxCO2Tons)),
		fmt.Sprintf("Cash %s", utils.FormatCash(float64(m.bunker.Cash))),
	}
}

func (m *dashboard) priceLines() []string {
	if m.prices == nil {
		return []string{paint(labelStyle, "waiting for data")}
	}
	fuelThreshold, co2Threshold := 0.0, 0.0
	if m.status != nil {
		fuelThreshold = m.status.Settings.FuelThresholdPrice
		co2Threshold = m.status.Settings.CO2ThresholdPrice
	}
	return []string{
		"Fuel " + formatPrice(m.prices.FuelPrice, fuelThreshold),
		"CO2  " + formatPrice(m.prices.CO2Price, co2Threshold),
		paint(labelStyle, "slot "+m.prices.Slot),
	}
}

func (m *dashboard) sessionLines() []string {
	if m.session == nil {
		return []string{paint(labelStyle, "waiting for data")}
	}
	return []string{
		m.session.Summary,
		fmt.Sprintf("Fuel used %s", utils.FormatTons(m.session.FuelUsedTons)),
		fmt.Sprintf("Bunker spend %s", utils.FormatCash(m.session.BunkerSpend)),
	}
}

func colourByLevel(level, text string) string {
	switch level {
	case "ERROR":
		return paint(badStyle, text)
	case "WARN":
		return paint(warnStyle, text)
	default:
		return text
	}
}
