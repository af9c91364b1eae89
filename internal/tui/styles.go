package tui

import "github.com/charmbracelet/lipgloss"

// Terminal theme colors (ANSI 0-15)
// These adapt to the user's terminal color scheme
var (
	colorBlack       = lipgloss.Color("0")
	colorRed         = lipgloss.Color("1")
	colorGreen       = lipgloss.Color("2")
	colorYellow      = lipgloss.Color("3")
	colorBlue        = lipgloss.Color("4")
	colorMagenta     = lipgloss.Color("5")
	colorCyan        = lipgloss.Color("6")
	colorWhite       = lipgloss.Color("7")
	colorBrightBlack = lipgloss.Color("8")

	// Semantic aliases
	primaryColor   = colorYellow
	successColor   = colorGreen
	dangerColor    = colorRed
	warningColor   = colorYellow
	highlightColor = colorMagenta
	mutedColor     = colorBrightBlack
	fgColor        = colorWhite

	// Tab bar
	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(colorBlack).
			Bold(true).
			Padding(0, 1)

	serverStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	// Status bar (no background - uses terminal default)
	statusBarStyle = lipgloss.NewStyle().
			Foreground(fgColor)

	// Table styles - selection uses bright black background
	selectionBg = colorBrightBlack

	columnHeaderStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	rowStyle = lipgloss.NewStyle()

	rowSelectedStyle = lipgloss.NewStyle().
				Background(selectionBg)

	idStyle = lipgloss.NewStyle().
		Foreground(highlightColor)

	statusOnlineStyle = lipgloss.NewStyle().
				Foreground(successColor)

	statusDegradedStyle = lipgloss.NewStyle().
				Foreground(warningColor)

	statusOfflineStyle = lipgloss.NewStyle().
				Foreground(dangerColor)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	// Modal/dialog styles
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	dialogTitleStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	// Error/success messages
	errorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// Help key style
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(fgColor)
)

// statusStyle colors a device status cell
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "online":
		return statusOnlineStyle
	case "degraded":
		return statusDegradedStyle
	case "offline":
		return statusOfflineStyle
	}
	return rowStyle
}
