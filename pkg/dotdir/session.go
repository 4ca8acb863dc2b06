package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	sessionFile = "session.json"
)

// SessionState represents the persisted active session state.
// Commands like "leaflet ask" and "leaflet chat" use it as the default
// session when no --session flag is provided.
type SessionState struct {
	// SessionID is the identifier of the active document session.
	SessionID string `json:"session_id"`

	// FileName is the name of the ingested document, kept for display.
	FileName string `json:"file_name,omitempty"`
}

// LoadSessionState loads the active session from a target .leaflet/session.json.
// Returns nil, nil if no session state exists.
// If overrideDir is non-empty, it is used instead of the default ~/.leaflet/ location.
func (m *Manager) LoadSessionState(overrideDir string) (*SessionState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, sessionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	state := &SessionState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing session state: %w", err)
	}

	return state, nil
}

// SaveSessionState persists the active session to a target .leaflet/session.json.
func (m *Manager) SaveSessionState(state *SessionState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil session state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}

	path := filepath.Join(dir, sessionFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}

	return nil
}

// ClearSessionState removes the active session state file if it exists.
func (m *Manager) ClearSessionState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, sessionFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session state: %w", err)
	}

	return nil
}
