package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/adriangreen/taskboard/internal/config"
)

const (
	ColorBorder = "#555555"
	ColorText   = "#FFFFFF"
	ColorBar    = "#333333"
)

// Styles contains all the lipgloss styles for the TUI
type Styles struct {
	// Layout styles
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	Panel     lipgloss.Style

	// Task list styles
	TaskCursor    lipgloss.Style
	TaskSelected  lipgloss.Style
	TaskActive    lipgloss.Style
	TaskCompleted lipgloss.Style
	Empty         lipgloss.Style

	// Inputs
	Prompt     lipgloss.Style
	InputError lipgloss.Style

	// Filter tabs
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style

	// Dialogs
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DangerDialog lipgloss.Style
	Celebrate    lipgloss.Style

	// Text styles
	Title   lipgloss.Style
	Subtle  lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Info    lipgloss.Style
	Key     lipgloss.Style
}

// NewStyles builds the styles from a theme. Empty theme colours fall back
// to the defaults.
func NewStyles(theme config.ThemeConfig) *Styles {
	primary := color(theme.PrimaryColor, "#7d56f4")
	secondary := color(theme.SecondaryColor, "#EE6FF8")
	accent := color(theme.AccentColor, "#F780E2")
	success := color(theme.SuccessColor, "#04B575")
	danger := color(theme.ErrorColor, "#EF4146")
	warning := color(theme.WarningColor, "#FF9800")
	muted := color(theme.MutedColor, "#626262")

	return &Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorText)).
			Background(primary).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(0, 1),

		TaskCursor: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		TaskSelected: lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true),

		TaskActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)),

		TaskCompleted: lipgloss.NewStyle().
			Foreground(muted).
			Strikethrough(true),

		Empty: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),

		Prompt: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),

		InputError: lipgloss.NewStyle().
			Foreground(danger),

		Tab: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),

		ActiveTab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)).
			Background(primary).
			Bold(true).
			Padding(0, 1),

		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(1, 2).
			Align(lipgloss.Center),

		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			PaddingBottom(1),

		DangerDialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(danger).
			Padding(1, 2).
			Align(lipgloss.Center),

		Celebrate: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(success).
			Foreground(success).
			Bold(true).
			Padding(1, 4).
			Align(lipgloss.Center),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),

		Subtle: lipgloss.NewStyle().
			Foreground(muted),

		Error: lipgloss.NewStyle().
			Foreground(danger).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(warning),

		Success: lipgloss.NewStyle().
			Foreground(success),

		Info: lipgloss.NewStyle().
			Foreground(secondary),

		Key: lipgloss.NewStyle().
			Foreground(accent).
			Background(lipgloss.Color(ColorBar)).
			Padding(0, 1).
			Bold(true),
	}
}

func color(value, fallback string) lipgloss.Color {
	if value == "" {
		return lipgloss.Color(fallback)
	}
	return lipgloss.Color(value)
}

// checkbox returns the marker shown before a task title.
func checkbox(completed bool) string {
	if completed {
		return "[✓]"
	}
	return "[ ]"
}
