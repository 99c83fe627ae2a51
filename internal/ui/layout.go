package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adriangreen/taskboard/internal/board"
)

const (
	headerHeight    = 1
	tabsHeight      = 1
	inputHeight     = 2
	bannerHeight    = 2
	statusBarHeight = 1
	panelChrome     = 2 // top and bottom border
	minListHeight   = 3
	minWidth        = 20
)

// LayoutDimensions holds the calculated dimensions for each section
type LayoutDimensions struct {
	Width  int
	Height int

	ListWidth  int
	ListHeight int
}

// calculateLayout computes the list size from the terminal size and the
// optional error banner.
func (m Model) calculateLayout() LayoutDimensions {
	width := m.width
	if width < minWidth {
		width = minWidth
	}

	chrome := headerHeight + tabsHeight + inputHeight + statusBarHeight + panelChrome
	if m.err != nil {
		chrome += bannerHeight
	}
	listHeight := m.height - chrome
	if listHeight < minListHeight {
		listHeight = minListHeight
	}

	return LayoutDimensions{
		Width:      width,
		Height:     m.height,
		ListWidth:  width - 4, // border and padding
		ListHeight: listHeight,
	}
}

func (m *Model) resize() {
	layout := m.calculateLayout()
	m.list.Width = layout.ListWidth
	m.list.Height = layout.ListHeight
	m.addInput.Width = layout.ListWidth - 4
	m.searchInput.Width = layout.ListWidth / 2
	m.editInput.Width = min(60, layout.Width-12)
	m.helpModel.Width = layout.Width
	m.refreshList()
}

// refreshList re-renders the task rows and keeps the cursor in view.
func (m *Model) refreshList() {
	m.clampCursor()
	m.list.SetContent(m.renderList())

	if m.list.Height <= 0 {
		return
	}
	switch {
	case m.cursor < m.list.YOffset:
		m.list.SetYOffset(m.cursor)
	case m.cursor >= m.list.YOffset+m.list.Height:
		m.list.SetYOffset(m.cursor - m.list.Height + 1)
	}
}

func (m Model) renderList() string {
	if !m.board.Loaded() {
		if m.board.Loading() {
			return m.styles.Empty.Render("Loading tasks…")
		}
		return m.styles.Empty.Render("Tasks could not be loaded. Press r to retry.")
	}

	visible := m.board.Visible()
	if len(visible) == 0 {
		switch {
		case m.board.Len() == 0:
			return m.styles.Empty.Render("No tasks yet. Press a to add one.")
		case m.board.Query() != "":
			return m.styles.Empty.Render(fmt.Sprintf("No tasks match %q.", m.board.Query()))
		default:
			return m.styles.Empty.Render(fmt.Sprintf("No %s tasks.", m.board.Filter()))
		}
	}

	rows := make([]string, 0, len(visible))
	for i, t := range visible {
		cursor := "  "
		title := m.styles.TaskActive.Render(t.Title)
		if t.Completed {
			title = m.styles.TaskCompleted.Render(t.Title)
		}
		box := checkbox(t.Completed)
		if i == m.cursor {
			cursor = m.styles.TaskCursor.Render("▸ ")
			box = m.styles.TaskSelected.Render(box)
		}
		rows = append(rows, cursor+box+" "+title)
	}
	return strings.Join(rows, "\n")
}

// renderHeader renders the title bar with counts and the loading spinner
func (m Model) renderHeader(width int) string {
	done, total := m.board.Counts()
	left := "TaskBoard"
	right := fmt.Sprintf("%d/%d done", done, total)
	if m.board.Loading() {
		right = m.spinner.View() + " " + right
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.styles.Header.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderTabs renders the filter selector and the active search query.
func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(board.Filters)+1)
	for i, f := range board.Filters {
		label := fmt.Sprintf("%d %s", i+1, strings.ToUpper(f.String()[:1])+f.String()[1:])
		if f == m.board.Filter() {
			tabs = append(tabs, m.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(label))
		}
	}

	switch {
	case m.mode == modeSearching:
		tabs = append(tabs, " "+m.searchInput.View())
	case m.board.Query() != "":
		tabs = append(tabs, m.styles.Info.Render(fmt.Sprintf(" /%s", m.board.Query())))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderAddInput renders the add field and its validation message.
func (m Model) renderAddInput() string {
	var line string
	if m.mode == modeAdding {
		line = m.addInput.View()
	} else {
		line = m.styles.Subtle.Render("+ press a to add a task")
	}

	hint := ""
	if err := m.board.AddError(); err != nil {
		hint = m.styles.InputError.Render("  " + err.Error())
	}
	return line + "\n" + hint
}

// renderStatusBar shows a transient notice or the short help.
func (m Model) renderStatusBar(width int) string {
	if m.notice != "" {
		return m.styles.StatusBar.Render(m.styles.Success.Render(m.notice))
	}
	h := m.helpModel
	h.Width = width
	return m.styles.StatusBar.Render(h.View(m.keyMap))
}
