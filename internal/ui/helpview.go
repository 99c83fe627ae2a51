package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelpOverlay renders the full key reference in a centred box.
func (m Model) renderHelpOverlay() string {
	h := m.helpModel
	h.Width = m.width - 8

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("TaskBoard keys"))
	b.WriteString("\n\n")
	b.WriteString(m.markdown.render(keyReference(m.keyMap), m.width-8))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Subtle.Render("Dialogs: "))
	b.WriteString(h.ShortHelpView(dialogKeys{confirm: m.keyMap.Confirm, cancel: m.keyMap.Cancel}.ShortHelp()))
	b.WriteString("\n")
	if m.config != nil && m.config.Path != "" {
		b.WriteString(m.styles.Subtle.Render("Config: " + m.config.Path))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render("Press '?' or 'Esc' to close help"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1, 2).
		Render(b.String())

	return m.place(box)
}
