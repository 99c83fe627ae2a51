// Package board holds the client-side state of the task list: the cached
// tasks, the active filter and search query, the add input, the in-flight
// request counter and the single open dialog flow.
//
// Board performs no I/O. Callers validate with the Prepare* methods, send
// the request themselves, and fold the server's answer back in with the
// Apply* methods. All methods must be called from one goroutine.
package board

import (
	"fmt"

	"github.com/adriangreen/taskboard/internal/tasks"
)

// Board is the task list state machine.
type Board struct {
	tasks   []tasks.Task
	loaded  bool
	filter  Filter
	query   string
	input   string
	addErr  error
	pending int
	flow    Flow
}

// New returns an empty board showing every task.
func New() *Board {
	return &Board{flow: Idle{}}
}

// Tasks returns a copy of the cached list in server order.
func (b *Board) Tasks() []tasks.Task {
	out := make([]tasks.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Len returns the number of cached tasks.
func (b *Board) Len() int {
	return len(b.tasks)
}

// Loaded reports whether the initial fetch has completed.
func (b *Board) Loaded() bool {
	return b.loaded
}

// Replace installs a freshly fetched list.
func (b *Board) Replace(list []tasks.Task) {
	b.tasks = make([]tasks.Task, len(list))
	copy(b.tasks, list)
	b.loaded = true
}

// BeginRequest marks one more request as in flight.
func (b *Board) BeginRequest() {
	b.pending++
}

// EndRequest marks one request as finished.
func (b *Board) EndRequest() {
	if b.pending > 0 {
		b.pending--
	}
}

// Loading reports whether any request is in flight.
func (b *Board) Loading() bool {
	return b.pending > 0
}

// Pending returns the number of in-flight requests.
func (b *Board) Pending() int {
	return b.pending
}

func (b *Board) Filter() Filter {
	return b.filter
}

func (b *Board) SetFilter(f Filter) {
	b.filter = f
}

// CycleFilter advances all → completed → active → all.
func (b *Board) CycleFilter() Filter {
	b.filter = Filters[(int(b.filter)+1)%len(Filters)]
	return b.filter
}

func (b *Board) Query() string {
	return b.query
}

func (b *Board) SetQuery(q string) {
	b.query = q
}

// Visible returns the filtered, searched view in cache order.
func (b *Board) Visible() []tasks.Task {
	return Search(Apply(b.tasks, b.filter), b.query)
}

// Counts returns the number of completed and total cached tasks.
func (b *Board) Counts() (completed, total int) {
	for _, t := range b.tasks {
		if t.Completed {
			completed++
		}
	}
	return completed, len(b.tasks)
}

// Input returns the add field's text.
func (b *Board) Input() string {
	return b.input
}

// SetInput replaces the add field's text.
func (b *Board) SetInput(s string) {
	b.input = s
}

// AddError returns the last add validation error, if any.
func (b *Board) AddError() error {
	return b.addErr
}

// PrepareAdd validates the add input and returns the trimmed title to
// create. A validation failure is also kept as AddError.
func (b *Board) PrepareAdd() (string, error) {
	title, err := validateTitle(b.tasks, b.input, "")
	b.addErr = err
	if err != nil {
		return "", err
	}
	return title, nil
}

// ApplyAdded stores a created task and clears the add field. A task a
// refresh already brought in is replaced rather than appended again.
func (b *Board) ApplyAdded(t tasks.Task) {
	if !b.replace(t) {
		b.tasks = append(b.tasks, t)
	}
	b.input = ""
	b.addErr = nil
}

// Toggled returns a copy of the cached task with Completed inverted.
// The cache itself is unchanged until ApplyUpdated.
func (b *Board) Toggled(id string) (tasks.Task, error) {
	i := tasks.Index(b.tasks, id)
	if i < 0 {
		return tasks.Task{}, fmt.Errorf("toggle %q: %w", id, ErrTaskNotFound)
	}
	t := b.tasks[i]
	t.Completed = !t.Completed
	return t, nil
}

// ApplyUpdated stores the server's copy of a toggled task. It returns true
// and opens Celebrating when that left every task completed while no other
// dialog was open.
func (b *Board) ApplyUpdated(t tasks.Task) bool {
	if !b.replace(t) {
		return false
	}
	if len(b.tasks) == 0 || !tasks.AllCompleted(b.tasks) || !b.IsIdle() {
		return false
	}
	b.flow = Celebrating{}
	return true
}

// replace swaps the cached task with the same ID for t.
func (b *Board) replace(t tasks.Task) bool {
	i := tasks.Index(b.tasks, t.ID)
	if i < 0 {
		return false
	}
	b.tasks[i] = t
	return true
}
