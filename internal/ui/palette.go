// internal/ui/palette.go
package ui

import "github.com/charmbracelet/lipgloss"

var (
	cyan    = lipgloss.Color("#00E5FF") // Primary highlight
	magenta = lipgloss.Color("#FF1B6B")
	yellow  = lipgloss.Color("#FFB500")
	green   = lipgloss.Color("#2AFFAA") // Positive PnL / success
	red     = lipgloss.Color("#FF5555") // Negative PnL / errors
	muted   = lipgloss.Color("#6C7280")
	text    = lipgloss.Color("#ECEFF4")
)

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	stat     lipgloss.Style
	positive lipgloss.Style
	negative lipgloss.Style
	neutral  lipgloss.Style
	pane     lipgloss.Style
	logInfo  lipgloss.Style
	logWarn  lipgloss.Style
	logError lipgloss.Style
	help     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Foreground(magenta).
			Bold(true),
		stat:     lipgloss.NewStyle().Foreground(text).Padding(0, 1),
		positive: lipgloss.NewStyle().Foreground(green).Bold(true),
		negative: lipgloss.NewStyle().Foreground(red).Bold(true),
		neutral:  lipgloss.NewStyle().Foreground(muted),
		pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		logInfo:  lipgloss.NewStyle().Foreground(text),
		logWarn:  lipgloss.NewStyle().Foreground(yellow),
		logError: lipgloss.NewStyle().Foreground(red),
		help:     lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
	}
}
