package tui

import "github.com/charmbracelet/lipgloss"

const (
	glyphSend = "➤"
	glyphStop = "■"
)

type styles struct {
	user        lipgloss.Style
	assistant   lipgloss.Style
	system      lipgloss.Style
	notice      lipgloss.Style
	placeholder lipgloss.Style
	badge       lipgloss.Style
	status      lipgloss.Style
	statusKey   lipgloss.Style
	sendGlyph   lipgloss.Style
	stopGlyph   lipgloss.Style
	input       lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		user:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")).MarginTop(1),
		assistant:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#bb9af7")).MarginTop(1),
		system:      lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")),
		notice:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#e0af68")),
		placeholder: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#9ece6a")),
		badge:       lipgloss.NewStyle().Foreground(lipgloss.Color("#1a1b26")).Background(lipgloss.Color("#7dcfff")).Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6")).Background(lipgloss.Color("#24283b")),
		statusKey:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c0caf5")).Background(lipgloss.Color("#414868")).Padding(0, 1),
		sendGlyph:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9ece6a")),
		stopGlyph:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f7768e")),
		input:       lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true).BorderForeground(lipgloss.Color("#414868")),
	}
}
