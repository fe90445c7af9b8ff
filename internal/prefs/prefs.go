// Package prefs implements the durable preference store: a small file-backed
// key-value map held apart from both trip representations, so a flag like
// migration completion survives a wipe of the structured database.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PrefsFile is the preference file name inside the data directory.
const PrefsFile = "prefs.json"

// KeyMigrationComplete marks that the one-time legacy import has run.
const KeyMigrationComplete = "migration_complete"

// Store reads and writes string preferences. Each call loads and rewrites
// the whole file; the map stays tiny.
type Store struct {
	path string
}

// New returns a preference store rooted at dataDir.
func New(dataDir string) *Store {
	if dataDir == "" {
		dataDir = "."
	}
	return &Store{path: filepath.Join(dataDir, PrefsFile)}
}

// Get returns the value for key, or "" when absent. A missing or corrupt
// file reads as an empty map.
func (s *Store) Get(key string) string {
	return s.load()[key]
}

// Set writes a key atomically.
func (s *Store) Set(key, value string) error {
	m := s.load()
	m[key] = value
	return s.save(m)
}

// Delete removes a key. Absent keys are a no-op.
func (s *Store) Delete(key string) error {
	m := s.load()
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.save(m)
}

func (s *Store) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]string{}
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return map[string]string{}
	}
	return m
}

// save writes the map using the temp-file, fsync, rename pattern.
func (s *Store) save(m map[string]string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling prefs: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing prefs: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
