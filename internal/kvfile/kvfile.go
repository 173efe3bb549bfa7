// Package kvfile persists small string maps as JSON snapshots on disk. It
// backs the consumed-message set and the ticket token log: state that must
// survive between runs but does not belong in the ticket database.
package kvfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store reads and writes one flat key-value map. Load returns the whole
// snapshot; Save replaces the file wholesale. Callers load at startup, mutate
// in memory, and save when done. Writes go through a temp file and rename so
// a crash never leaves a half-written snapshot behind.
type Store struct {
	path string
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("kvfile: empty path")
	}
	return &Store{path: filepath.Clean(path)}, nil
}

// Load reads the current snapshot. A missing file is an empty map, not an
// error.
func (s *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return entries, nil
}

// Save replaces the snapshot with entries.
func (s *Store) Save(entries map[string]string) error {
	if entries == nil {
		entries = map[string]string{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o640); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}
