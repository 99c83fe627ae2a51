// Package logging opens the diagnostic log file. The terminal is owned by
// the TUI, so nothing is ever written to stdout or stderr from here.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const prefix = "taskboard"

// Logger is a file-backed charmbracelet logger.
type Logger struct {
	*log.Logger
	path  string
	close func() error
}

// Open creates (or appends to) the log file at path with the given level.
// The parent directory is created if needed.
func Open(path, level string) (*Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", level, err)
	}
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &Logger{
		Logger: New(f, lvl),
		path:   path,
		close:  f.Close,
	}
	l.Info("session started", "pid", os.Getpid())
	return l, nil
}

// New returns an unstyled logfmt logger writing to w.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       log.LogfmtFormatter,
	})
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: log.New(io.Discard)}
}

// Path returns the log file path, empty for Discard.
func (l *Logger) Path() string {
	return l.path
}

// Close writes a final line and closes the file.
func (l *Logger) Close() error {
	if l == nil || l.close == nil {
		return nil
	}
	l.Info("session ended")
	err := l.close()
	l.close = nil
	return err
}
