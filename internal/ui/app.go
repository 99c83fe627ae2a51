package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/adriangreen/taskboard/internal/board"
	"github.com/adriangreen/taskboard/internal/config"
	"github.com/adriangreen/taskboard/internal/tasks"
)

// inputMode tracks which text field owns the keyboard when no dialog is open.
type inputMode int

const (
	modeBrowse inputMode = iota
	modeAdding
	modeSearching
)

// Options wires the model to its collaborators.
type Options struct {
	Context       context.Context
	Service       tasks.Service
	Config        *config.Config
	ConfigManager *config.ConfigManager
	Logger        *log.Logger
	// StatePath is where the filter selection is persisted. Empty disables it.
	StatePath string
	// Clipboard overrides the system clipboard writer.
	Clipboard func(string) error
}

// Model represents the TUI application state
type Model struct {
	// Services
	ctx           context.Context
	svc           tasks.Service
	config        *config.Config
	configManager *config.ConfigManager
	logger        *log.Logger
	statePath     string
	clipboard     func(string) error

	// Task data
	board     *board.Board
	bulkLimit int

	// View state
	mode       inputMode
	cursor     int
	showHelp   bool
	creating   bool
	submitting bool

	// Layout
	width  int
	height int
	ready  bool

	// Widgets
	addInput    textinput.Model
	editInput   textinput.Model
	searchInput textinput.Model
	list        viewport.Model
	spinner     spinner.Model
	helpModel   help.Model
	keyMap      KeyMap
	styles      *Styles
	markdown    *markdownRenderer

	// Feedback
	err       *AppError
	notice    string
	noticeSeq int
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	cfg := opts.Config
	if cfg == nil && opts.ConfigManager != nil {
		cfg = opts.ConfigManager.GetConfig()
	}
	if cfg == nil {
		cfg = &config.Config{BulkConcurrency: config.DefaultBulkConcurrency}
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	addInput := textinput.New()
	addInput.Placeholder = "What needs to be done?"
	addInput.CharLimit = 200
	addInput.Prompt = "+ "

	editInput := textinput.New()
	editInput.CharLimit = 200
	editInput.Prompt = ""

	searchInput := textinput.New()
	searchInput.Placeholder = "fuzzy search titles"
	searchInput.CharLimit = 100
	searchInput.Prompt = "/ "

	m := Model{
		ctx:           ctx,
		svc:           opts.Service,
		config:        cfg,
		configManager: opts.ConfigManager,
		logger:        logger,
		statePath:     opts.StatePath,
		clipboard:     opts.Clipboard,
		board:         board.New(),
		bulkLimit:     cfg.BulkConcurrency,
		addInput:      addInput,
		editInput:     editInput,
		searchInput:   searchInput,
		list:          viewport.New(0, 0),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		helpModel:     help.New(),
		keyMap:        NewKeyMap(cfg),
		styles:        NewStyles(cfg.Theme),
		markdown:      &markdownRenderer{},
	}

	if m.statePath != "" {
		if state, err := config.LoadState(m.statePath); err == nil {
			if f, err := board.ParseFilter(state.Filter); err == nil {
				m.board.SetFilter(f)
			}
		} else {
			m.logger.Warn("ui state not restored", "path", m.statePath, "err", err)
		}
	}

	return m
}

// Board exposes the underlying state for inspection.
func (m Model) Board() *board.Board {
	return m.board
}

// Init fetches the task list and starts listening for config reloads.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.request(LoadTasksCmd(m.ctx, m.svc))}
	if m.configManager != nil {
		cmds = append(cmds, WaitForConfigReload(m.configManager))
	}
	return tea.Batch(cmds...)
}

// request marks a request in flight and starts the spinner when it is the
// first one.
func (m *Model) request(cmd tea.Cmd) tea.Cmd {
	first := !m.board.Loading()
	m.board.BeginRequest()
	if first {
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

// Update handles incoming messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.board.Loading() {
			// Dropping the tick stops the animation until the next request.
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TasksLoadedMsg:
		m.board.EndRequest()
		if msg.Err != nil {
			m.fail("load tasks", "", msg.Err)
			return m, nil
		}
		m.board.Replace(msg.Tasks)
		m.err = nil
		m.logger.Debug("tasks loaded", "count", len(msg.Tasks))
		m.refreshList()
		return m, nil

	case TaskCreatedMsg:
		m.board.EndRequest()
		m.creating = false
		if msg.Err != nil {
			m.fail("add task", "", msg.Err)
			return m, nil
		}
		m.board.ApplyAdded(msg.Task)
		m.err = nil
		m.addInput.SetValue("")
		m.logger.Info("task created", "id", msg.Task.ID)
		m.refreshList()
		m.selectID(msg.Task.ID)
		return m, nil

	case TaskToggledMsg:
		m.board.EndRequest()
		if msg.Err != nil {
			m.fail("update task", msg.ID, msg.Err)
			return m, nil
		}
		m.err = nil
		if m.board.ApplyUpdated(msg.Task) {
			m.logger.Info("all tasks completed")
		}
		m.refreshList()
		return m, nil

	case TaskRenamedMsg:
		m.board.EndRequest()
		m.submitting = false
		if msg.Err != nil {
			m.fail("rename task", msg.ID, msg.Err)
			return m, nil
		}
		m.board.ApplyRenamed(msg.Task)
		m.err = nil
		if m.board.IsIdle() {
			m.editInput.Blur()
		}
		m.logger.Info("task renamed", "id", msg.Task.ID)
		m.refreshList()
		return m, nil

	case TasksDeletedMsg:
		m.board.EndRequest()
		m.submitting = false
		m.handleDeleted(msg)
		m.refreshList()
		return m, nil

	case ClipboardMsg:
		if msg.Err != nil {
			m.err = NewAppError(ErrorCategoryOperation, "Clipboard unavailable", "Could not copy the task title.", msg.Err)
			m.logger.Warn("clipboard write failed", "err", msg.Err)
			return m, nil
		}
		cmd := m.setNotice(fmt.Sprintf("Copied %q", msg.Title))
		return m, cmd

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case ConfigReloadedMsg:
		if m.configManager == nil {
			return m, nil
		}
		m.applyConfig(m.configManager.GetConfig())
		notice := m.setNotice("Configuration reloaded")
		return m, tea.Batch(notice, WaitForConfigReload(m.configManager))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocusedInput(msg)
}

func (m *Model) handleDeleted(msg TasksDeletedMsg) {
	err := m.board.ApplyDeleted(msg.Outcomes)
	failed := board.Failed(msg.Outcomes)
	for _, o := range failed {
		m.logFailure("delete task", o.ID, NewRequestError("delete task", o.Err))
	}
	deleted := len(msg.Outcomes) - len(failed)
	if deleted > 0 {
		m.logger.Info("tasks deleted", "mode", msg.Mode, "count", deleted)
	}

	switch {
	case err == nil:
		m.err = nil
	case len(msg.Outcomes) == 1:
		m.err = NewRequestError("delete task", failed[0].Err)
	default:
		m.err = NewBulkDeleteError(len(failed), len(msg.Outcomes), err)
	}
	m.clampCursor()
}

// fail records a remote failure for the banner and the log.
func (m *Model) fail(op, id string, err error) {
	m.err = NewRequestError(op, err)
	m.logFailure(op, id, m.err)
}

func (m *Model) logFailure(op, id string, appErr *AppError) {
	m.logger.Error("request failed",
		"op", op,
		"id", id,
		"request_id", appErr.RequestID,
		"status", appErr.Status,
		"category", appErr.Category,
		"err", appErr.Underlying,
	)
}

func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	return clearNoticeAfter(m.noticeSeq)
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.config = cfg
	m.keyMap = NewKeyMap(cfg)
	m.styles = NewStyles(cfg.Theme)
	m.bulkLimit = cfg.BulkConcurrency
	m.refreshList()
	m.logger.Info("configuration applied", "path", cfg.Path)
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case !m.board.IsIdle():
		if _, ok := m.board.Flow().(board.Editing); ok {
			m.editInput, cmd = m.editInput.Update(msg)
		}
	case m.mode == modeAdding:
		m.addInput, cmd = m.addInput.Update(msg)
	case m.mode == modeSearching:
		m.searchInput, cmd = m.searchInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.showHelp {
		if key.Matches(msg, m.keyMap.Help) || msg.Type == tea.KeyEsc {
			m.showHelp = false
		}
		return m, nil
	}

	switch flow := m.board.Flow().(type) {
	case board.ConfirmingDelete:
		return m.handleConfirmKey(msg, flow)
	case board.Editing:
		return m.handleEditKey(msg)
	case board.Celebrating:
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc || msg.Type == tea.KeySpace {
			m.board.Cancel()
		}
		return m, nil
	}

	switch m.mode {
	case modeAdding:
		return m.handleAddKey(msg)
	case modeSearching:
		return m.handleSearchKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg, flow board.ConfirmingDelete) (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keyMap.Confirm):
		ids, err := m.board.PrepareDelete()
		if err != nil {
			return m, nil
		}
		if len(ids) == 0 {
			m.board.Cancel()
			cmd := m.setNotice("Nothing to delete")
			return m, cmd
		}
		m.submitting = true
		m.logger.Debug("deleting tasks", "mode", flow.Mode, "count", len(ids))
		return m, m.request(DeleteTasksCmd(m.ctx, m.svc, flow.Mode, ids, m.bulkLimit))

	case key.Matches(msg, m.keyMap.Cancel):
		m.board.Cancel()
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEnter:
		t, err := m.board.PrepareEdit()
		if err != nil {
			// The message is rendered inside the edit dialog.
			return m, nil
		}
		m.submitting = true
		return m, m.request(RenameTaskCmd(m.ctx, m.svc, t))

	case tea.KeyEsc:
		m.board.Cancel()
		m.editInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	_ = m.board.SetDraft(m.editInput.Value())
	return m, cmd
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.creating {
			return m, nil
		}
		m.board.SetInput(m.addInput.Value())
		title, err := m.board.PrepareAdd()
		if err != nil {
			return m, nil
		}
		m.creating = true
		return m, m.request(CreateTaskCmd(m.ctx, m.svc, title))

	case tea.KeyEsc:
		m.mode = modeBrowse
		m.addInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	m.board.SetInput(m.addInput.Value())
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeBrowse
		m.searchInput.Blur()
		return m, nil

	case tea.KeyEsc:
		m.mode = modeBrowse
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.board.SetQuery("")
		m.refreshList()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.board.SetQuery(m.searchInput.Value())
	m.cursor = 0
	m.refreshList()
	return m, cmd
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keyMap
	switch {
	case key.Matches(msg, km.Quit):
		return m.quit()

	case key.Matches(msg, km.Help):
		m.showHelp = true

	case key.Matches(msg, km.Up):
		m.moveCursor(-1)
	case key.Matches(msg, km.Down):
		m.moveCursor(1)
	case key.Matches(msg, km.PageUp):
		m.moveCursor(-max(1, m.list.Height))
	case key.Matches(msg, km.PageDown):
		m.moveCursor(max(1, m.list.Height))
	case key.Matches(msg, km.Top):
		m.moveCursor(-len(m.board.Visible()))
	case key.Matches(msg, km.Bottom):
		m.moveCursor(len(m.board.Visible()))

	case key.Matches(msg, km.Add):
		m.mode = modeAdding
		cmd := m.addInput.Focus()
		return m, cmd

	case key.Matches(msg, km.Search):
		m.mode = modeSearching
		m.searchInput.SetValue(m.board.Query())
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, km.Toggle):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		toggled, err := m.board.Toggled(t.ID)
		if err != nil {
			return m, nil
		}
		return m, m.request(ToggleTaskCmd(m.ctx, m.svc, toggled))

	case key.Matches(msg, km.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.board.OpenEdit(t.ID); err != nil {
			m.logger.Debug("edit not opened", "id", t.ID, "err", err)
			return m, nil
		}
		m.editInput.SetValue(t.Title)
		m.editInput.CursorEnd()
		cmd := m.editInput.Focus()
		return m, cmd

	case key.Matches(msg, km.Delete):
		if t, ok := m.selected(); ok {
			if err := m.board.OpenDelete(t.ID); err != nil {
				m.logger.Debug("delete not opened", "id", t.ID, "err", err)
			}
		}

	case key.Matches(msg, km.DeleteCompleted):
		_ = m.board.OpenBulkDelete(board.DeleteCompleted)

	case key.Matches(msg, km.DeleteAll):
		_ = m.board.OpenBulkDelete(board.DeleteAll)

	case key.Matches(msg, km.Copy):
		if t, ok := m.selected(); ok {
			return m, CopyTitleCmd(m.clipboard, t.Title)
		}

	case key.Matches(msg, km.Refresh):
		return m, m.request(LoadTasksCmd(m.ctx, m.svc))

	case key.Matches(msg, km.Filter):
		m.board.CycleFilter()
		m.afterFilterChange()
	case key.Matches(msg, km.FilterAll):
		m.board.SetFilter(board.FilterAll)
		m.afterFilterChange()
	case key.Matches(msg, km.FilterCompleted):
		m.board.SetFilter(board.FilterCompleted)
		m.afterFilterChange()
	case key.Matches(msg, km.FilterActive):
		m.board.SetFilter(board.FilterActive)
		m.afterFilterChange()

	case msg.Type == tea.KeyEsc:
		switch {
		case m.err != nil:
			m.err = nil
		case m.board.Query() != "":
			m.board.SetQuery("")
			m.searchInput.SetValue("")
			m.refreshList()
		}
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.statePath != "" {
		state := &config.UIState{Filter: m.board.Filter().String()}
		if err := config.SaveState(m.statePath, state); err != nil {
			m.logger.Warn("ui state not saved", "path", m.statePath, "err", err)
		}
	}
	return m, tea.Quit
}

func (m *Model) afterFilterChange() {
	m.cursor = 0
	m.refreshList()
}

// selected returns the task under the cursor in the visible list.
func (m Model) selected() (tasks.Task, bool) {
	visible := m.board.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return tasks.Task{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) selectID(id string) {
	for i, t := range m.board.Visible() {
		if t.ID == id {
			m.cursor = i
			m.refreshList()
			return
		}
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
	m.refreshList()
}

func (m *Model) clampCursor() {
	n := len(m.board.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the current screen
func (m Model) View() string {
	if !m.ready {
		return m.styles.Info.Render("Starting TaskBoard…")
	}

	if m.showHelp {
		return m.renderHelpOverlay()
	}

	switch flow := m.board.Flow().(type) {
	case board.ConfirmingDelete:
		return m.renderConfirmDialog(flow)
	case board.Editing:
		return m.renderEditDialog(flow)
	case board.Celebrating:
		return m.renderCelebration()
	}

	layout := m.calculateLayout()
	// The banner steals rows from the list while it is shown.
	m.list.Height = layout.ListHeight
	m.refreshList()

	sections := []string{
		m.renderHeader(layout.Width),
		m.renderTabs(),
		m.renderAddInput(),
		m.styles.Panel.Width(layout.Width - 2).Render(m.list.View()),
	}
	if banner := m.renderErrorBanner(layout.Width); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, m.renderStatusBar(layout.Width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
