package cli

import "github.com/charmbracelet/lipgloss"

var (
	green  = lipgloss.Color("#A8E6CF")
	red    = lipgloss.Color("#FFB3BA")
	amber  = lipgloss.Color("#FFD59E")
	muted  = lipgloss.Color("#6B7280")
	bright = lipgloss.Color("#F9FAFB")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(bright).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(muted)

	goodStyle = lipgloss.NewStyle().
			Foreground(green)

	badStyle = lipgloss.NewStyle().
			Foreground(red)

	warnStyle = lipgloss.NewStyle().
			Foreground(amber)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(muted).
			Italic(true)
)

// paint renders s with style unless colours are disabled
func paint(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}
