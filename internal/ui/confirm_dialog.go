package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/adriangreen/taskboard/internal/board"
)

// celebrationText is shown once every task is completed.
const celebrationText = "🎉 All tasks completed! 🎉"

func (m Model) dialogWidth() int {
	w := m.width / 2
	if w < 40 {
		w = min(40, m.width)
	}
	return w
}

// place centres a dialog on the screen.
func (m Model) place(dialog string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

// renderConfirmDialog renders the delete confirmation for the open flow.
func (m Model) renderConfirmDialog(flow board.ConfirmingDelete) string {
	width := m.dialogWidth()

	title := "Delete task"
	if flow.Mode != board.DeleteSingle {
		title = "Delete tasks"
	}

	confirmBtn := lipgloss.NewStyle().Padding(0, 2).Inherit(m.styles.Error).Render("Delete")
	cancelBtn := lipgloss.NewStyle().Padding(0, 2).Inherit(m.styles.Subtle).Render("Cancel")
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, confirmBtn, "   ", cancelBtn)

	footer := m.styles.Subtle.Render("y/enter: delete • n/esc: cancel")
	if m.submitting {
		footer = m.spinner.View() + " deleting…"
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		m.styles.DialogTitle.Render(title),
		lipgloss.NewStyle().Width(width-8).Align(lipgloss.Center).PaddingBottom(1).Render(m.board.ConfirmMessage()),
		buttons,
		"",
		footer,
	)
	content = m.withDialogError(content, width-8)

	return m.place(m.styles.DangerDialog.Width(width).Render(content))
}

// renderEditDialog renders the rename field with its validation error.
func (m Model) renderEditDialog(flow board.Editing) string {
	width := m.dialogWidth()

	errLine := " "
	if flow.Err != nil {
		errLine = m.styles.InputError.Render(flow.Err.Error())
	}
	footer := m.styles.Subtle.Render("enter: save • esc: cancel")
	if m.submitting {
		footer = m.spinner.View() + " saving…"
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.DialogTitle.Render("Edit task"),
		m.styles.Panel.Width(width-8).Render(m.editInput.View()),
		errLine,
		"",
		footer,
	)
	content = m.withDialogError(content, width-8)

	return m.place(m.styles.Dialog.Width(width).Align(lipgloss.Left).Render(content))
}

// withDialogError appends the error banner to dialog content. Remote
// failures raised while a dialog is open are reported inside it.
func (m Model) withDialogError(content string, width int) string {
	banner := m.renderDialogError(width)
	if banner == "" {
		return content
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, "", banner)
}

// renderCelebration renders the all-done message.
func (m Model) renderCelebration() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		celebrationText,
		"",
		m.styles.Subtle.Render("press enter to close"),
	)
	return m.place(m.styles.Celebrate.Render(content))
}
