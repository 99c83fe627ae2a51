package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adriangreen/taskboard/internal/board"
	"github.com/adriangreen/taskboard/internal/taskapi"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// ErrorCategoryNetwork covers unreachable services and timeouts
	ErrorCategoryNetwork ErrorCategory = "network"
	// ErrorCategoryService covers non-2xx answers from the task service
	ErrorCategoryService ErrorCategory = "service"
	// ErrorCategoryParsing covers responses that do not match the task contract
	ErrorCategoryParsing ErrorCategory = "parsing"
	// ErrorCategoryOperation covers everything else, including partial bulk failures
	ErrorCategoryOperation ErrorCategory = "operation"
	// ErrorCategoryValidation covers user input validation errors
	ErrorCategoryValidation ErrorCategory = "validation"
)

// AppError represents a standardized application error
type AppError struct {
	Category      ErrorCategory
	Title         string
	Message       string
	Details       string
	RequestID     string
	Status        int
	RecoveryHints []string
	Underlying    error
}

// NewAppError creates a new app error
func NewAppError(category ErrorCategory, title, message string, underlying error) *AppError {
	return &AppError{
		Category:   category,
		Title:      title,
		Message:    message,
		Underlying: underlying,
	}
}

// NewRequestError classifies a failed remote operation. op is a short
// human description such as "add task".
func NewRequestError(op string, err error) *AppError {
	var (
		statusErr *taskapi.StatusError
		schemaErr *taskapi.SchemaError
	)

	var appErr *AppError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		appErr = NewAppError(ErrorCategoryNetwork, "Request timed out",
			fmt.Sprintf("Could not %s: the task service did not answer in time.", op), err)
		appErr.RecoveryHints = []string{"Check that the task service is running", "Press r to retry"}

	case errors.As(err, &statusErr):
		appErr = NewAppError(ErrorCategoryService, "Task service error",
			fmt.Sprintf("Could not %s: the service answered %d.", op, statusErr.StatusCode), err).
			WithDetails(statusErr.Body)
		appErr.Status = statusErr.StatusCode
		if taskapi.IsNotFound(err) {
			appErr.RecoveryHints = []string{"The task may have been removed elsewhere", "Press r to refresh the list"}
		} else {
			appErr.RecoveryHints = []string{"Retry the operation"}
		}

	case errors.As(err, &schemaErr):
		appErr = NewAppError(ErrorCategoryParsing, "Unexpected response",
			fmt.Sprintf("Could not %s: the service sent data in an unknown shape.", op), err).
			WithDetails(schemaErr.Err.Error())
		appErr.RecoveryHints = []string{"Check the configured service URL", "Set validateResponses to false for lenient backends"}

	case board.IsValidation(err):
		appErr = NewValidationError(op, err)

	default:
		var transportErr *taskapi.TransportError
		if errors.As(err, &transportErr) {
			appErr = NewAppError(ErrorCategoryNetwork, "Cannot reach task service",
				fmt.Sprintf("Could not %s.", op), err)
			appErr.RecoveryHints = []string{"Check that the task service is running", "Press r to retry"}
		} else {
			appErr = NewAppError(ErrorCategoryOperation, "Operation failed",
				fmt.Sprintf("Could not %s.", op), err)
		}
	}

	appErr.RequestID = taskapi.RequestID(err)
	return appErr
}

// NewBulkDeleteError summarizes a bulk deletion where some requests failed.
func NewBulkDeleteError(failed, total int, err error) *AppError {
	appErr := NewAppError(ErrorCategoryOperation, "Some deletions failed",
		fmt.Sprintf("%d of %d tasks could not be deleted.", failed, total), err)
	appErr.RecoveryHints = []string{"Confirm again to retry the remaining tasks"}
	return appErr
}

// NewValidationError creates a standardized validation error
func NewValidationError(title string, underlying error) *AppError {
	return NewAppError(ErrorCategoryValidation, title, underlying.Error(), underlying)
}

// WithDetails adds detailed error information
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Title, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Underlying
}

// GetDisplayMessage returns a user-friendly message for the error
func (e *AppError) GetDisplayMessage() string {
	if e.Details != "" {
		return fmt.Sprintf("%s %s", e.Message, strings.TrimSpace(e.Details))
	}
	return e.Message
}

// GetRecoveryMessage returns recovery hints on one line.
func (e *AppError) GetRecoveryMessage() string {
	return strings.Join(e.RecoveryHints, " · ")
}
