package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorAccentBright))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText))

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorPrimaryText))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorDisabledText)).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAccentBright)).
			Bold(true)
)

// panel renders content in the rounded card used by every screen
func panel(width, height int, active bool, content string) string {
	border := ColorBorder
	if active {
		border = ColorAccentMain
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1)
	if width > 4 {
		style = style.Width(width - 2)
	}
	if height > 2 {
		style = style.Height(height - 2)
	}
	return style.Render(content)
}

// helpBar renders the centered hotkey line
func helpBar(width int, text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(width).
		Render(text)
}

// statusLine renders the last operation result under a screen
func statusLine(text string, isErr bool) string {
	switch {
	case text == "":
		return ""
	case isErr:
		return errorStyle.Render("❌ " + text)
	default:
		return successStyle.Render("✅ " + text)
	}
}

func statusBadge(s models.Status) string {
	switch s {
	case models.StatusCompleted:
		return successStyle.Render("✓ done")
	case models.StatusInProgress:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorInfo)).Render("▶ doing")
	default:
		return labelStyle.Render("○ open")
	}
}

func priorityBadge(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return errorStyle.Render("high")
	case models.PriorityLow:
		return mutedStyle.Render("low")
	default:
		return warningStyle.Render("medium")
	}
}

// progressBar draws a fixed-width bar for a 0-100 percentage
func progressBar(percent, width int) string {
	if width < 1 {
		width = 1
	}
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	return successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

// truncate cuts s to width runes, marking the cut with an ellipsis
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// field renders "label: value" with an optional placeholder for empty values
func field(label, value string) string {
	if value == "" {
		return labelStyle.Render(label+": ") + mutedStyle.Render("none")
	}
	return labelStyle.Render(label+": ") + textStyle.Render(value)
}
