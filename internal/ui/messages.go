package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adriangreen/taskboard/internal/board"
	"github.com/adriangreen/taskboard/internal/config"
	"github.com/adriangreen/taskboard/internal/tasks"
)

// TasksLoadedMsg carries the result of fetching the full list.
type TasksLoadedMsg struct {
	Tasks []tasks.Task
	Err   error
}

// TaskCreatedMsg carries the server's copy of a new task.
type TaskCreatedMsg struct {
	Task tasks.Task
	Err  error
}

// TaskToggledMsg carries the server's copy of a task after a completion flip.
type TaskToggledMsg struct {
	ID   string
	Task tasks.Task
	Err  error
}

// TaskRenamedMsg carries the server's copy of a task after a title edit.
type TaskRenamedMsg struct {
	ID   string
	Task tasks.Task
	Err  error
}

// TasksDeletedMsg reports one outcome per attempted deletion.
type TasksDeletedMsg struct {
	Mode     board.DeleteMode
	Outcomes []board.DeleteOutcome
}

// ConfigReloadedMsg is sent when config files have been reloaded from disk
type ConfigReloadedMsg struct{}

// ClipboardMsg reports a copy to the system clipboard.
type ClipboardMsg struct {
	Title string
	Err   error
}

// clearNoticeMsg expires the status-bar notice with the matching sequence.
type clearNoticeMsg struct {
	seq int
}

const noticeTTL = 3 * time.Second

// LoadTasksCmd fetches every task.
func LoadTasksCmd(ctx context.Context, svc tasks.Service) tea.Cmd {
	return func() tea.Msg {
		list, err := svc.List(ctx)
		return TasksLoadedMsg{Tasks: list, Err: err}
	}
}

// CreateTaskCmd creates a task with a validated title.
func CreateTaskCmd(ctx context.Context, svc tasks.Service, title string) tea.Cmd {
	return func() tea.Msg {
		t, err := svc.Create(ctx, title)
		return TaskCreatedMsg{Task: t, Err: err}
	}
}

// ToggleTaskCmd sends a task whose Completed flag has already been flipped.
func ToggleTaskCmd(ctx context.Context, svc tasks.Service, t tasks.Task) tea.Cmd {
	return func() tea.Msg {
		updated, err := svc.Update(ctx, t)
		return TaskToggledMsg{ID: t.ID, Task: updated, Err: err}
	}
}

// RenameTaskCmd sends a task carrying its new title.
func RenameTaskCmd(ctx context.Context, svc tasks.Service, t tasks.Task) tea.Cmd {
	return func() tea.Msg {
		updated, err := svc.Update(ctx, t)
		return TaskRenamedMsg{ID: t.ID, Task: updated, Err: err}
	}
}

// DeleteTasksCmd deletes ids with at most limit requests in flight.
func DeleteTasksCmd(ctx context.Context, svc tasks.Service, mode board.DeleteMode, ids []string, limit int) tea.Cmd {
	return func() tea.Msg {
		return TasksDeletedMsg{Mode: mode, Outcomes: board.DeleteEach(ctx, svc, ids, limit)}
	}
}

// CopyTitleCmd writes title to the system clipboard.
func CopyTitleCmd(write func(string) error, title string) tea.Cmd {
	if write == nil {
		write = clipboard.WriteAll
	}
	return func() tea.Msg {
		return ClipboardMsg{Title: title, Err: write(title)}
	}
}

// WaitForConfigReload returns a command that waits for config to be reloaded
// and sends a ConfigReloadedMsg when that happens
func WaitForConfigReload(manager *config.ConfigManager) tea.Cmd {
	return func() tea.Msg {
		<-manager.ReloadEvents()
		return ConfigReloadedMsg{}
	}
}

func clearNoticeAfter(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}
