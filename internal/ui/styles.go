package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#C4302B", Dark: "#FF5F57"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	colorOK     = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	colorError  = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(colorOK)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	helpStyle   = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	selectStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Underline(true)
	frameStyle  = lipgloss.NewStyle().Padding(1, ViewPadding)
)
