// Package state persists the optional "last notified day" marker used to
// guard against settling the same business day twice.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Marker records the most recent business day handed to the notification
// sink.
type Marker struct {
	LastNotifiedDay string    `json:"last_notified_day"`
	NotifiedAt      time.Time `json:"notified_at"`
}

// FileStore keeps the marker in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a marker store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the marker. A missing file yields an empty marker. A
// corrupted file is set aside as .broken and also yields an empty
// marker, so a damaged state file can never block settlement.
func (s *FileStore) Load(ctx context.Context) (Marker, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Marker{}, nil
		}
		return Marker{}, fmt.Errorf("read marker file: %w", err)
	}

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		_ = os.WriteFile(s.path+".broken", data, 0644)
		return Marker{}, nil
	}
	return m, nil
}

// Save writes the marker atomically via a temp file and rename.
func (s *FileStore) Save(ctx context.Context, m Marker) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal marker: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp marker file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp marker file: %w", err)
	}
	return nil
}
