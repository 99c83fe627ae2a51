// Package tasks defines the task value type and the backend-agnostic
// interface used to talk to the remote task service.
package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Task represents a single todo item owned by the remote task service.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// UnmarshalJSON accepts numeric identifiers as well as strings; some task
// services (json-server before v1) assign integer IDs.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		Title     string          `json:"title"`
		Completed bool            `json:"completed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
		t.ID = ""
	case id[0] == '"':
		if err := json.Unmarshal(id, &t.ID); err != nil {
			return fmt.Errorf("decode task id: %w", err)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("decode task id: %w", err)
		}
		t.ID = n.String()
	}
	t.Title = raw.Title
	t.Completed = raw.Completed
	return nil
}

// NormalizeTitle returns the form used for duplicate detection: trimmed
// and lower-cased.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// SameTitle reports whether two titles collide case-insensitively after trimming.
func SameTitle(a, b string) bool {
	return NormalizeTitle(a) == NormalizeTitle(b)
}

// Service defines the operations the board needs from the task service.
// Implementations never mutate local state; callers apply results.
type Service interface {
	// List returns every task in service order.
	List(ctx context.Context) ([]Task, error)

	// Create stores a new, incomplete task and returns it with its
	// server-assigned ID.
	Create(ctx context.Context, title string) (Task, error)

	// Update replaces the task identified by task.ID.
	Update(ctx context.Context, task Task) (Task, error)

	// Delete removes a task by ID.
	Delete(ctx context.Context, id string) error
}

// Index returns the position of the task with the given ID, or -1.
func Index(list []Task, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// AllCompleted reports whether list is non-empty and every task is completed.
func AllCompleted(list []Task) bool {
	if len(list) == 0 {
		return false
	}
	for _, t := range list {
		if !t.Completed {
			return false
		}
	}
	return true
}
