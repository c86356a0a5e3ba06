package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Fixed keys for the values the platform persists client-side.
const (
	// TokenKey holds the opaque session bearer token.
	TokenKey = "rodeo_session_token"

	// IntelHistoryKey holds the per-session threat-intel lookup history.
	IntelHistoryKey = "rodeo_intel_history"

	// Shift/follow-up tracking for the policy viewer.
	ShiftCompletionKey = "rodeo_shift_completion"
	ShiftAssigneesKey  = "rodeo_shift_assignees"
	ShiftNotesKey      = "rodeo_shift_notes"
)

// Store is a mutex-guarded key/value store persisted as a single JSON
// document. A Store opened without a path keeps everything in memory,
// which is what tests and short-lived CLI invocations use.
type Store struct {
	path string

	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// Open loads the store at path, creating parent directories as needed.
// A missing file yields an empty store; it is written on first Set.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("localstore: parse %s: %w", path, err)
	}
	return s, nil
}

// NewMemory creates an in-memory store with no backing file.
func NewMemory() *Store {
	return &Store{values: make(map[string]json.RawMessage)}
}

// Get retrieves the raw value under key.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetJSON decodes the value under key into out.
// Returns false when the key is absent or holds malformed data.
func (s *Store) GetJSON(key string, out any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// Set stores v under key and persists the store.
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	return s.persistLocked()
}

// Delete removes key if present and persists the store. Deleting an
// absent key is a no-op, so concurrent deleters cannot conflict.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.persistLocked()
}

// persistLocked writes the store to disk via a temp-file rename so a
// crash mid-write never leaves a torn document. Caller holds s.mu.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: encode store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("localstore: create dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("localstore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("localstore: rename: %w", err)
	}
	return nil
}
