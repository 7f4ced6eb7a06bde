package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorStudy = lipgloss.Color("2")
	colorRest  = lipgloss.Color("3")
	colorMuted = lipgloss.Color("8")
	colorError = lipgloss.Color("1")

	titleStyle  = lipgloss.NewStyle().Bold(true)
	clockStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(colorRest)
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

func modeStyle(studying, resting bool) lipgloss.Style {
	switch {
	case studying:
		return lipgloss.NewStyle().Bold(true).Foreground(colorStudy)
	case resting:
		return lipgloss.NewStyle().Bold(true).Foreground(colorRest)
	default:
		return mutedStyle
	}
}
