package setup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileStore persists committed setup states keyed by resource, as YAML.
type FileStore[S any] struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore[S any](path string) *FileStore[S] {
	return &FileStore[S]{path: path}
}

// Path returns the backing file path.
func (s *FileStore[S]) Path() string {
	return s.path
}

// Load reads all states. A missing file yields an empty map.
func (s *FileStore[S]) Load() (map[string]S, error) {
	data, err := os.ReadFile(filepath.Clean(s.path))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]S{}, nil
	}

	if err != nil {
		return nil, err
	}

	states := map[string]S{}
	if err := yaml.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("setup: parsing %s: %w", s.path, err)
	}

	return states, nil
}

// Save replaces the file with states. The write goes through a temporary
// file in the same directory and a rename.
func (s *FileStore[S]) Save(states map[string]S) error {
	data, err := yaml.Marshal(states)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".graphsync-state-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}
