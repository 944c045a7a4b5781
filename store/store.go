// Package store persists the last-used room id between runs. Everything
// here is best effort: a missing or unreadable file is not an error.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type state struct {
	LastRoom string `json:"lastRoom"`
}

// Store is a single-file JSON key-value store in the user's config
// directory.
type Store struct {
	path string
}

// DefaultPath resolves the per-user state file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "whiteboard", "state.json"), nil
}

// New opens a store backed by the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// LastRoom reports the persisted room id, or empty when nothing usable is
// stored.
func (s *Store) LastRoom() string {
	if s == nil || s.path == "" {
		return ""
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var st state
	if err := json.Unmarshal(b, &st); err != nil {
		return ""
	}
	return st.LastRoom
}

// SaveLastRoom writes the room id, creating the parent directory as needed.
func (s *Store) SaveLastRoom(room string) error {
	if s == nil || s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	b, err := json.Marshal(state{LastRoom: room})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}
