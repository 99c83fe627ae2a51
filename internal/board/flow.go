package board

import (
	"errors"
	"fmt"

	"github.com/adriangreen/taskboard/internal/tasks"
)

// Flow errors.
var (
	ErrFlowBusy     = errors.New("another dialog is already open")
	ErrNoFlow       = errors.New("no matching dialog is open")
	ErrTaskNotFound = errors.New("task not found")
)

// DeleteMode distinguishes single deletion from the bulk variants.
type DeleteMode int

const (
	DeleteSingle DeleteMode = iota
	DeleteCompleted
	DeleteAll
)

func (m DeleteMode) String() string {
	switch m {
	case DeleteCompleted:
		return "completed"
	case DeleteAll:
		return "all"
	default:
		return "single"
	}
}

// Flow is the single interaction currently in progress. Exactly one of
// Idle, ConfirmingDelete, Editing or Celebrating.
type Flow interface {
	// Name identifies the flow in logs.
	Name() string
	isFlow()
}

// Idle means no dialog is open.
type Idle struct{}

// ConfirmingDelete waits for the user to confirm a deletion.
// Target is only set in DeleteSingle mode.
type ConfirmingDelete struct {
	Mode   DeleteMode
	Target tasks.Task
}

// Editing holds the rename draft for Target.
type Editing struct {
	Target tasks.Task
	Draft  string
	Err    error
}

// Celebrating is raised when every task has been completed.
type Celebrating struct{}

func (Idle) Name() string             { return "idle" }
func (ConfirmingDelete) Name() string { return "confirming-delete" }
func (Editing) Name() string          { return "editing" }
func (Celebrating) Name() string      { return "celebrating" }

func (Idle) isFlow()             {}
func (ConfirmingDelete) isFlow() {}
func (Editing) isFlow()          {}
func (Celebrating) isFlow()      {}

// Flow returns the current flow.
func (b *Board) Flow() Flow {
	return b.flow
}

// IsIdle reports whether no dialog is open.
func (b *Board) IsIdle() bool {
	_, ok := b.flow.(Idle)
	return ok
}

func (b *Board) openFlow(f Flow) error {
	if !b.IsIdle() {
		return fmt.Errorf("open %s: %w", f.Name(), ErrFlowBusy)
	}
	b.flow = f
	return nil
}

// Cancel closes any open flow without remote effect. Drafts are discarded.
func (b *Board) Cancel() {
	b.flow = Idle{}
}

// OpenEdit starts renaming the task with the given ID, seeding the draft
// with its current title.
func (b *Board) OpenEdit(id string) error {
	i := tasks.Index(b.tasks, id)
	if i < 0 {
		return fmt.Errorf("edit %q: %w", id, ErrTaskNotFound)
	}
	t := b.tasks[i]
	return b.openFlow(Editing{Target: t, Draft: t.Title})
}

// SetDraft replaces the rename draft and clears the edit error.
func (b *Board) SetDraft(draft string) error {
	e, ok := b.flow.(Editing)
	if !ok {
		return ErrNoFlow
	}
	e.Draft = draft
	e.Err = nil
	b.flow = e
	return nil
}

// PrepareEdit validates the draft. On success it returns the target with the
// trimmed draft title, ready to send as an update. On failure the error is
// also stored on the Editing flow.
func (b *Board) PrepareEdit() (tasks.Task, error) {
	e, ok := b.flow.(Editing)
	if !ok {
		return tasks.Task{}, ErrNoFlow
	}
	title, err := validateTitle(b.tasks, e.Draft, e.Target.ID)
	if err != nil {
		e.Err = err
		b.flow = e
		return tasks.Task{}, err
	}
	// Start from the cached copy so changes made while the dialog was open,
	// such as a toggle, are not reverted by the rename.
	updated := e.Target
	if i := tasks.Index(b.tasks, e.Target.ID); i >= 0 {
		updated = b.tasks[i]
	}
	updated.Title = title
	return updated, nil
}

// ApplyRenamed stores the server's copy of a renamed task and closes the
// edit flow if it is still editing that task.
func (b *Board) ApplyRenamed(t tasks.Task) {
	b.replace(t)
	if e, ok := b.flow.(Editing); ok && e.Target.ID == t.ID {
		b.flow = Idle{}
	}
}

// OpenDelete asks for confirmation before deleting one task.
func (b *Board) OpenDelete(id string) error {
	i := tasks.Index(b.tasks, id)
	if i < 0 {
		return fmt.Errorf("delete %q: %w", id, ErrTaskNotFound)
	}
	return b.openFlow(ConfirmingDelete{Mode: DeleteSingle, Target: b.tasks[i]})
}

// OpenBulkDelete asks for confirmation before deleting every completed
// task (DeleteCompleted) or every task (DeleteAll).
func (b *Board) OpenBulkDelete(mode DeleteMode) error {
	if mode == DeleteSingle {
		return fmt.Errorf("bulk delete: single mode needs a target")
	}
	return b.openFlow(ConfirmingDelete{Mode: mode})
}

// ConfirmMessage returns the body text of the delete confirmation.
func (b *Board) ConfirmMessage() string {
	c, ok := b.flow.(ConfirmingDelete)
	if !ok {
		return ""
	}
	switch c.Mode {
	case DeleteCompleted:
		return "Delete all completed tasks?"
	case DeleteAll:
		return "Delete all tasks?"
	default:
		return fmt.Sprintf("Delete task %q?", c.Target.Title)
	}
}

// PrepareDelete returns the IDs the confirmed deletion targets, computed
// from the cache at confirmation time.
func (b *Board) PrepareDelete() ([]string, error) {
	c, ok := b.flow.(ConfirmingDelete)
	if !ok {
		return nil, ErrNoFlow
	}
	var ids []string
	for _, t := range b.tasks {
		switch c.Mode {
		case DeleteSingle:
			if t.ID == c.Target.ID {
				ids = append(ids, t.ID)
			}
		case DeleteCompleted:
			if t.Completed {
				ids = append(ids, t.ID)
			}
		case DeleteAll:
			ids = append(ids, t.ID)
		}
	}
	if c.Mode == DeleteSingle && len(ids) == 0 {
		// The target vanished from the cache; delete by the captured ID anyway.
		ids = []string{c.Target.ID}
	}
	return ids, nil
}

// ApplyDeleted removes every successfully deleted ID from the cache. The
// confirmation closes only when every deletion succeeded, so a failed
// batch can be retried against what is left. The returned error joins the
// individual failures.
func (b *Board) ApplyDeleted(outcomes []DeleteOutcome) error {
	done := make(map[string]bool, len(outcomes))
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", o.ID, o.Err))
			continue
		}
		done[o.ID] = true
	}

	if len(done) > 0 {
		kept := b.tasks[:0:0]
		for _, t := range b.tasks {
			if !done[t.ID] {
				kept = append(kept, t)
			}
		}
		b.tasks = kept
	}

	if len(errs) == 0 {
		if _, ok := b.flow.(ConfirmingDelete); ok {
			b.flow = Idle{}
		}
		return nil
	}
	return errors.Join(errs...)
}
