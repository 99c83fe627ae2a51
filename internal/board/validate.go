package board

import (
	"errors"
	"strings"

	"github.com/adriangreen/taskboard/internal/tasks"
)

// Validation errors are shown inline and never reach the network.
var (
	ErrEmptyTitle     = errors.New("title must not be empty")
	ErrDuplicateTitle = errors.New("task already exists")
)

// IsValidation reports whether err is one of the title validation errors.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyTitle) || errors.Is(err, ErrDuplicateTitle)
}

// validateTitle checks title against the cached list and returns it trimmed.
// The task with ID excludeID is ignored by the duplicate check.
func validateTitle(list []tasks.Task, title, excludeID string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	for _, t := range list {
		if excludeID != "" && t.ID == excludeID {
			continue
		}
		if tasks.SameTitle(t.Title, trimmed) {
			return "", ErrDuplicateTitle
		}
	}
	return trimmed, nil
}
