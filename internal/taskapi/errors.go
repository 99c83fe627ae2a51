package taskapi

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the task service answers with a non-2xx status.
type StatusError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Body       string
	RequestID  string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("taskapi: %s: %s %s returned %d %s", e.Op, e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// SchemaError is returned when a response body cannot be decoded or does not
// match the task contract.
type SchemaError struct {
	Op        string
	RequestID string
	Err       error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("taskapi: %s: unexpected response shape: %v", e.Op, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the task service.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// RequestID extracts the request ID carried by a client error, if any.
func RequestID(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.RequestID
	}
	var sce *SchemaError
	if errors.As(err, &sce) {
		return sce.RequestID
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.RequestID
	}
	return ""
}

// TransportError wraps failures that happen before a status is available:
// connection errors, timeouts and cancellation.
type TransportError struct {
	Op        string
	RequestID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("taskapi: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
