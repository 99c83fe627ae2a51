package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// UIState represents the persisted TUI state between sessions. Tasks
// themselves are never stored locally.
type UIState struct {
	Filter string `json:"filter"`
}

// DefaultStatePath is the UI state file inside StateDir.
func DefaultStatePath() string {
	return filepath.Join(StateDir(), "ui-state.json")
}

// SaveState persists the UI state to disk
func SaveState(statePath string, state *UIState) error {
	if statePath == "" {
		return fmt.Errorf("state path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(statePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// LoadState loads the UI state from disk. A missing file yields the
// default state.
func LoadState(statePath string) (*UIState, error) {
	if statePath == "" {
		return nil, fmt.Errorf("state path is empty")
	}

	data, err := os.ReadFile(statePath)
	if errors.Is(err, os.ErrNotExist) {
		return &UIState{Filter: "all"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state UIState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if state.Filter == "" {
		state.Filter = "all"
	}
	return &state, nil
}
