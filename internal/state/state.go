package state

import (
	"encoding/json"
	"fmt"
	"os"

	"ipbot/internal/types"
)

// File persists the last known public IP state at a fixed path
type File struct {
	path string
}

// NewFile creates a state file handle for the given path
func NewFile(path string) *File {
	return &File{path: path}
}

// Load loads the last known state from file. A missing file yields a
// zero state and no error.
func (f *File) Load() (types.IPState, error) {
	var state types.IPState

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return types.IPState{}, fmt.Errorf("failed to parse state file: %w", err)
	}

	return state, nil
}

// Save saves the state to file
func (f *File) Save(state types.IPState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write to temporary file first
	tmpFile := f.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	// Rename temporary file to actual file (atomic operation)
	if err := os.Rename(tmpFile, f.path); err != nil {
		return fmt.Errorf("failed to save state file: %w", err)
	}

	return nil
}
