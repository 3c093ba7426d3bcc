package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Persisted keys.
const (
	KeyDictionary = "dictionary"
	KeyLastSync   = "lastSync"
	KeyTheme      = "theme"
	KeyContrast   = "contrast"
)

// ErrUnavailable is returned when the state file cannot be read or written.
var ErrUnavailable = errors.New("local store unavailable")

// Store is a flat string key/value map persisted as a single JSON file.
type Store struct {
	mu       sync.RWMutex
	filePath string
	values   map[string]string
}

// Open loads the store from filePath, or starts empty if the file does not
// exist. A file that exists but cannot be read or decoded yields an empty
// store at the same path together with an error wrapping ErrUnavailable; the
// store stays usable and the next write replaces the bad file.
func Open(filePath string) (*Store, error) {
	s := &Store{filePath: filePath, values: map[string]string{}}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return s, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, filePath, err)
	}
	if values != nil {
		s.values = values
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.filePath
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and writes the file. The in-memory map is only
// updated once the write has succeeded.
func (s *Store) Set(key, value string) error {
	return s.SetMany(map[string]string{key: value})
}

// SetMany writes several keys in one atomic file replacement.
func (s *Store) SetMany(kv map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLocked()
	for k, v := range kv {
		next[k] = v
	}
	if err := s.writeAtomic(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLocked()
	for _, k := range keys {
		delete(next, k)
	}
	if err := s.writeAtomic(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

// Snapshot returns a copy of every stored value.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() map[string]string {
	cp := make(map[string]string, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	return cp
}

// writeAtomic writes to a temp file then renames it over filePath.
// Caller must hold s.mu.
func (s *Store) writeAtomic(values map[string]string) error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Unique per write; other processes may write the same file.
	tmp, err := os.CreateTemp(dir, filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
