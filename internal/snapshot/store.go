package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sjsage522/ebookdealworker/logger"
)

// Store persists snapshots between runs
type Store interface {
	Load() (*Snapshot, error)
	Save(s *Snapshot) error
}

// FileStore keeps the snapshot as an indented UTF-8 JSON file
type FileStore struct {
	Path string
}

// NewFileStore creates a new file-backed store
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the snapshot. A missing file returns an error wrapping fs.ErrNotExist.
func (f *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Save writes the snapshot atomically through a temp file in the same directory
func (f *FileStore) Save(s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".deals-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	logger.ForStore().Debug().Str("path", f.Path).Int("items", len(s.Items)).Msg("snapshot saved")
	return nil
}

// Encode serializes a snapshot as indented JSON without HTML escaping
func Encode(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot, normalizing null arrays to empty ones
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.ChangedPlatforms == nil {
		s.ChangedPlatforms = []string{}
	}
	for i := range s.Items {
		if s.Items[i].CardTitles == nil {
			s.Items[i].CardTitles = []string{}
		}
	}
	return &s, nil
}
