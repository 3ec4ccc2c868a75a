package cmd

import "github.com/charmbracelet/lipgloss"

var (
	correctColor   = lipgloss.Color("#8BC34A")
	incorrectColor = lipgloss.Color("#e53935")
	accentColor    = lipgloss.Color("#2196F3")
	mutedColor     = lipgloss.Color("#9E9E9E")
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	correctStyle   = lipgloss.NewStyle().Bold(true).Foreground(correctColor)
	incorrectStyle = lipgloss.NewStyle().Bold(true).Foreground(incorrectColor)
	mutedStyle     = lipgloss.NewStyle().Foreground(mutedColor)
)
