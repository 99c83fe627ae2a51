package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// errorBannerLines returns the headline and the hint line for the last
// remote failure.
func (m Model) errorBannerLines() (string, string) {
	title := m.styles.Error.Render("✗ " + m.err.Title)
	msg := m.err.GetDisplayMessage()
	if m.err.RequestID != "" {
		msg += m.styles.Subtle.Render(fmt.Sprintf(" (request %s)", shortID(m.err.RequestID)))
	}

	hints := m.err.GetRecoveryMessage()
	if hints != "" {
		hints += " · "
	}
	hints += "esc to dismiss"
	return title + " " + msg, m.styles.Subtle.Render(hints)
}

// renderErrorBanner renders the last remote failure above the status bar,
// one line each for the message and the hints.
// It stays until dismissed with esc or replaced by another error.
func (m Model) renderErrorBanner(width int) string {
	if m.err == nil {
		return ""
	}
	line, hints := m.errorBannerLines()
	clip := lipgloss.NewStyle().MaxWidth(width)
	return clip.Render(line) + "\n" + clip.Render(hints)
}

// renderDialogError renders the same banner wrapped to a dialog's width.
func (m Model) renderDialogError(width int) string {
	if m.err == nil {
		return ""
	}
	line, hints := m.errorBannerLines()
	wrap := lipgloss.NewStyle().Width(width)
	return lipgloss.JoinVertical(lipgloss.Left, wrap.Render(line), wrap.Render(hints))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
