package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")). // Pink
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // Cyan
			MarginLeft(2)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // Orange
			MarginLeft(2)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	stepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")) // Blue

	checkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")) // Green

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // Grey
)

// renderProgress styles one observer line by its marker.
func renderProgress(line string) string {
	switch {
	case strings.HasPrefix(line, "✓"):
		return checkStyle.Render(line)
	case strings.HasPrefix(line, "✗"):
		return errorStyle.Render(line)
	case strings.HasPrefix(line, "!"):
		return warnStyle.Render(line)
	case strings.HasPrefix(line, "  "):
		return mutedStyle.Render(line)
	case strings.HasSuffix(line, "..."):
		return stepStyle.Render(line)
	default:
		return infoStyle.Render(line)
	}
}
