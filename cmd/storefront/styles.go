package main

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBorder  = lipgloss.Color("#4B5563")

	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1)
	styleOK    = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleWarn  = lipgloss.NewStyle().Foreground(colorWarning)
	styleErr   = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleMuted = lipgloss.NewStyle().Foreground(colorMuted)

	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2).
			MarginRight(1)

	styleCardValue = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
)
