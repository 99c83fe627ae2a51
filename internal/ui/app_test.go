package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adriangreen/taskboard/internal/board"
	"github.com/adriangreen/taskboard/internal/config"
	"github.com/adriangreen/taskboard/internal/taskapi"
	"github.com/adriangreen/taskboard/internal/tasks"
)

// fakeService is an in-memory tasks.Service with per-operation failures.
type fakeService struct {
	mu         sync.Mutex
	tasks      []tasks.Task
	next       int
	failList   error
	failCreate error
	failUpdate error
	failDelete map[string]error
	creates    int
	updates    int
	deletes    int
}

func newFakeService(seed ...tasks.Task) *fakeService {
	return &fakeService{tasks: seed, next: 100, failDelete: map[string]error{}}
}

func (f *fakeService) List(ctx context.Context) ([]tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	out := make([]tasks.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeService) Create(ctx context.Context, title string) (tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failCreate != nil {
		return tasks.Task{}, f.failCreate
	}
	f.next++
	t := tasks.Task{ID: fmt.Sprint(f.next), Title: title}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeService) Update(ctx context.Context, t tasks.Task) (tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failUpdate != nil {
		return tasks.Task{}, f.failUpdate
	}
	i := tasks.Index(f.tasks, t.ID)
	if i < 0 {
		return tasks.Task{}, &taskapi.StatusError{Op: "update task", StatusCode: http.StatusNotFound}
	}
	f.tasks[i] = t
	return t, nil
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if err := f.failDelete[id]; err != nil {
		return err
	}
	i := tasks.Index(f.tasks, id)
	if i < 0 {
		return &taskapi.StatusError{Op: "delete task", StatusCode: http.StatusNotFound}
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

func (f *fakeService) snapshot() []tasks.Task {
	list, _ := f.List(context.Background())
	return list
}

// runCmd executes cmd, giving up on commands that wait on timers such as
// cursor blinks and notice expiry.
func runCmd(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// drive feeds the results of cmd back into the model until nothing is left.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case nil, spinner.TickMsg, clearNoticeMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, nextCmd := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nextCmd)
		}
	}
	return m
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drive(t, next.(Model), cmd)
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

// typeText delivers s as a single paste-like rune message.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	return press(t, m, keys(s))
}

func createTestModel(t *testing.T, svc *fakeService) Model {
	t.Helper()
	m := NewModel(Options{
		Service: svc,
		Config:  &config.Config{BulkConcurrency: 2},
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	return drive(t, m, m.Init())
}

func seedTasks() []tasks.Task {
	return []tasks.Task{
		{ID: "1", Title: "Buy milk", Completed: true},
		{ID: "2", Title: "Wash car"},
		{ID: "3", Title: "Pay rent"},
	}
}

func TestInitLoadsTasks(t *testing.T) {
	m := createTestModel(t, newFakeService(seedTasks()...))

	assert.True(t, m.Board().Loaded())
	assert.False(t, m.Board().Loading())
	assert.Len(t, m.Board().Tasks(), 3)

	view := m.View()
	assert.Contains(t, view, "Buy milk")
	assert.Contains(t, view, "1/3 done")
}

func TestInitLoadFailureShowsBanner(t *testing.T) {
	svc := newFakeService()
	svc.failList = &taskapi.TransportError{Op: "list tasks", Err: errors.New("connection refused")}

	m := createTestModel(t, svc)
	require.NotNil(t, m.err)
	assert.Equal(t, ErrorCategoryNetwork, m.err.Category)
	assert.False(t, m.Board().Loading())
	assert.Contains(t, m.View(), "Cannot reach task service")

	// esc dismisses, r retries
	m = press(t, m, esc)
	assert.Nil(t, m.err)
	svc.failList = nil
	m = press(t, m, keys("r"))
	assert.True(t, m.Board().Loaded())
}

func TestLoadingFlagTracksRequests(t *testing.T) {
	m := NewModel(Options{Service: newFakeService()})
	cmd := m.Init()
	assert.True(t, m.Board().Loading(), "loading while the fetch is in flight")

	m = drive(t, m, cmd)
	assert.False(t, m.Board().Loading())
}

func TestAddTask(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	m := createTestModel(t, svc)

	m = press(t, m, keys("a"))
	assert.Equal(t, modeAdding, m.mode)
	m = typeText(t, m, "  Walk dog ")
	m = press(t, m, enter)

	assert.Equal(t, 1, svc.creates)
	list := m.Board().Tasks()
	require.Len(t, list, 4)
	assert.Equal(t, "Walk dog", list[3].Title)
	assert.False(t, list[3].Completed)
	assert.Equal(t, "", m.addInput.Value())
	assert.Equal(t, 3, m.cursor, "cursor follows the new task")
}

func TestAddValidationNeverCallsService(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	m := createTestModel(t, svc)

	m = press(t, m, keys("a"))
	m = press(t, m, enter)
	assert.ErrorIs(t, m.Board().AddError(), board.ErrEmptyTitle)
	assert.Contains(t, m.View(), "title must not be empty")

	m = typeText(t, m, "WASH CAR")
	m = press(t, m, enter)
	assert.ErrorIs(t, m.Board().AddError(), board.ErrDuplicateTitle)
	assert.Contains(t, m.View(), "task already exists")

	assert.Equal(t, 0, svc.creates)
	assert.Len(t, m.Board().Tasks(), 3)
}

func TestAddFailureKeepsInput(t *testing.T) {
	svc := newFakeService()
	svc.failCreate = &taskapi.StatusError{Op: "create task", StatusCode: http.StatusInternalServerError, Body: "boom"}
	m := createTestModel(t, svc)

	m = press(t, m, keys("a"))
	m = typeText(t, m, "Walk dog")
	m = press(t, m, enter)

	assert.Empty(t, m.Board().Tasks())
	assert.Equal(t, "Walk dog", m.addInput.Value())
	require.NotNil(t, m.err)
	assert.Equal(t, ErrorCategoryService, m.err.Category)
	assert.Equal(t, http.StatusInternalServerError, m.err.Status)
}

func TestToggleTask(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	m := createTestModel(t, svc)

	m = press(t, m, down) // Wash car
	m = press(t, m, space)

	assert.True(t, m.Board().Tasks()[1].Completed)
	assert.True(t, svc.snapshot()[1].Completed)
	assert.True(t, m.Board().IsIdle(), "Pay rent is still open")
}

func TestToggleFailureLeavesCache(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	svc.failUpdate = &taskapi.TransportError{Op: "update task", Err: context.DeadlineExceeded}
	m := createTestModel(t, svc)

	m = press(t, m, down)
	m = press(t, m, keys("x"))

	assert.False(t, m.Board().Tasks()[1].Completed)
	require.NotNil(t, m.err)
	assert.Equal(t, "Request timed out", m.err.Title)
}

func TestCompletingLastTaskCelebrates(t *testing.T) {
	svc := newFakeService(
		tasks.Task{ID: "1", Title: "Buy milk", Completed: true},
		tasks.Task{ID: "2", Title: "Wash car"},
	)
	m := createTestModel(t, svc)

	m = press(t, m, down)
	m = press(t, m, space)
	assert.IsType(t, board.Celebrating{}, m.Board().Flow())
	assert.Contains(t, m.View(), "All tasks completed")

	m = press(t, m, enter)
	assert.True(t, m.Board().IsIdle())
}

func TestEditTask(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	m := createTestModel(t, svc)

	m = press(t, m, down)
	m = press(t, m, keys("e"))
	flow, ok := m.Board().Flow().(board.Editing)
	require.True(t, ok)
	assert.Equal(t, "Wash car", flow.Draft)
	assert.Contains(t, m.View(), "Edit task")

	m = typeText(t, m, " today")
	m = press(t, m, enter)

	assert.True(t, m.Board().IsIdle())
	assert.Equal(t, "Wash car today", m.Board().Tasks()[1].Title)
	assert.Equal(t, "Wash car today", svc.snapshot()[1].Title)
}

func TestEditValidationKeepsDialogOpen(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	m := createTestModel(t, svc)

	m = press(t, m, down)
	m = press(t, m, keys("e"))
	for range "Wash car" {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m = typeText(t, m, "pay RENT")
	m = press(t, m, enter)

	flow, ok := m.Board().Flow().(board.Editing)
	require.True(t, ok)
	assert.ErrorIs(t, flow.Err, board.ErrDuplicateTitle)
	assert.Contains(t, m.View(), "task already exists")
	assert.Equal(t, 0, svc.updates)

	m = press(t, m, esc)
	assert.True(t, m.Board().IsIdle())
	assert.Equal(t, "Wash car", m.Board().Tasks()[1].Title)
}

func TestEditFailureShownInDialog(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	svc.failUpdate = &taskapi.StatusError{Op: "update task", StatusCode: http.StatusInternalServerError}
	m := createTestModel(t, svc)

	m = press(t, m, down)
	m = press(t, m, keys("e"))
	m = typeText(t, m, "X")
	m = press(t, m, enter)

	flow, ok := m.Board().Flow().(board.Editing)
	require.True(t, ok, "dialog stays open after a failed rename")
	assert.Equal(t, "Wash carX", flow.Draft)
	require.NotNil(t, m.err)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Edit task")
	assert.Contains(t, view, "Task service error")
	assert.Equal(t, "Wash car", m.Board().Tasks()[1].Title)
}

func TestDeleteSingleWithConfirmation(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	m := createTestModel(t, svc)

	m = press(t, m, down)
	m = press(t, m, keys("d"))
	assert.Equal(t, `Delete task "Wash car"?`, m.Board().ConfirmMessage())
	assert.Contains(t, m.View(), `Delete task "Wash car"?`)

	// Other dialogs cannot open on top.
	m = press(t, m, keys("e"))
	assert.IsType(t, board.ConfirmingDelete{}, m.Board().Flow())

	m = press(t, m, keys("y"))
	assert.True(t, m.Board().IsIdle())
	assert.Equal(t, []string{"1", "3"}, taskIDs(m.Board().Tasks()))
	assert.Equal(t, 1, svc.deletes)
}

func TestDeleteCancelled(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	m := createTestModel(t, svc)

	m = press(t, m, keys("X"))
	assert.Equal(t, "Delete all tasks?", m.Board().ConfirmMessage())
	m = press(t, m, esc)

	assert.True(t, m.Board().IsIdle())
	assert.Len(t, m.Board().Tasks(), 3)
	assert.Equal(t, 0, svc.deletes)
}

func TestBulkDeleteCompleted(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	m := createTestModel(t, svc)

	m = press(t, m, keys("C"))
	assert.Equal(t, "Delete all completed tasks?", m.Board().ConfirmMessage())
	m = press(t, m, enter)

	assert.Equal(t, []string{"2", "3"}, taskIDs(m.Board().Tasks()))
	assert.Equal(t, 1, svc.deletes)
}

func TestBulkDeletePartialFailure(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	svc.failDelete["2"] = &taskapi.StatusError{Op: "delete task", StatusCode: http.StatusInternalServerError}
	m := createTestModel(t, svc)

	m = press(t, m, keys("X"))
	m = press(t, m, keys("y"))

	assert.Equal(t, []string{"2"}, taskIDs(m.Board().Tasks()))
	assert.IsType(t, board.ConfirmingDelete{}, m.Board().Flow(), "dialog stays open for a retry")
	require.NotNil(t, m.err)
	assert.Equal(t, "Some deletions failed", m.err.Title)
	assert.Contains(t, m.err.Message, "1 of 3")

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Delete all tasks?")
	assert.Contains(t, view, "Some deletions failed")
	assert.Contains(t, view, "Confirm again")

	// Retry once the service recovers.
	delete(svc.failDelete, "2")
	m = press(t, m, keys("y"))
	assert.Empty(t, m.Board().Tasks())
	assert.True(t, m.Board().IsIdle())
}

func TestBulkDeleteWithNothingToDelete(t *testing.T) {
	svc := newFakeService(tasks.Task{ID: "1", Title: "Open"})
	m := createTestModel(t, svc)

	m = press(t, m, keys("C"))
	m = press(t, m, keys("y"))
	assert.True(t, m.Board().IsIdle())
	assert.Equal(t, 0, svc.deletes)
	assert.Equal(t, "Nothing to delete", m.notice)
}

func TestFilterKeys(t *testing.T) {
	m := createTestModel(t, newFakeService(seedTasks()...))

	m = press(t, m, keys("2"))
	assert.Equal(t, board.FilterCompleted, m.Board().Filter())
	assert.Equal(t, []string{"1"}, taskIDs(m.Board().Visible()))

	m = press(t, m, keys("3"))
	assert.Equal(t, []string{"2", "3"}, taskIDs(m.Board().Visible()))

	m = press(t, m, keys("f"))
	assert.Equal(t, board.FilterAll, m.Board().Filter())
	assert.Len(t, m.Board().Tasks(), 3, "filtering never touches the cache")
}

func TestFilterEmptyState(t *testing.T) {
	m := createTestModel(t, newFakeService(tasks.Task{ID: "1", Title: "Open"}))
	m = press(t, m, keys("2"))
	assert.Contains(t, m.View(), "No completed tasks.")
}

func TestSearch(t *testing.T) {
	m := createTestModel(t, newFakeService(seedTasks()...))

	m = press(t, m, keys("/"))
	m = typeText(t, m, "rent")
	assert.Equal(t, []string{"3"}, taskIDs(m.Board().Visible()))

	m = press(t, m, enter)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "rent", m.Board().Query())

	// Actions apply to the visible row.
	m = press(t, m, space)
	assert.True(t, m.Board().Tasks()[2].Completed)

	m = press(t, m, esc)
	assert.Equal(t, "", m.Board().Query())
	assert.Len(t, m.Board().Visible(), 3)
}

func TestCopyTitle(t *testing.T) {
	var copied string
	m := NewModel(Options{
		Service:   newFakeService(seedTasks()...),
		Clipboard: func(s string) error { copied = s; return nil },
	})
	m = drive(t, m, m.Init())

	m = press(t, m, keys("y"))
	assert.Equal(t, "Buy milk", copied)
	assert.Equal(t, `Copied "Buy milk"`, m.notice)
}

func TestHelpOverlay(t *testing.T) {
	m := createTestModel(t, newFakeService(seedTasks()...))
	m = press(t, m, keys("?"))
	assert.True(t, m.showHelp)
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "TaskBoard keys")
	assert.Contains(t, view, "toggle done")

	// Keys are swallowed while help is open.
	m = press(t, m, keys("d"))
	assert.True(t, m.Board().IsIdle())

	m = press(t, m, esc)
	assert.False(t, m.showHelp)
}

func TestQuitPersistsFilter(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "ui-state.json")
	m := NewModel(Options{Service: newFakeService(seedTasks()...), StatePath: statePath})
	m = drive(t, m, m.Init())
	m = press(t, m, keys("3"))

	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	restored := NewModel(Options{Service: newFakeService(), StatePath: statePath})
	assert.Equal(t, board.FilterActive, restored.Board().Filter())
}

func TestCustomKeyBindings(t *testing.T) {
	svc := newFakeService(seedTasks()...)
	m := NewModel(Options{
		Service: svc,
		Config:  &config.Config{KeyBindings: map[string]string{"toggle": "t"}, BulkConcurrency: 1},
	})
	m = drive(t, m, m.Init())

	m = press(t, m, keys("t"))
	assert.False(t, m.Board().Tasks()[0].Completed)

	m = press(t, m, space)
	assert.False(t, m.Board().Tasks()[0].Completed, "space is no longer bound")
}

func TestViewBeforeReady(t *testing.T) {
	m := NewModel(Options{Service: newFakeService()})
	assert.Contains(t, m.View(), "Starting")
}

func taskIDs(list []tasks.Task) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}
