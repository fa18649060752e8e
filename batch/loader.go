package batch

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/rlch/graphsync"
)

// Loader loads and caches batch files.
type Loader struct {
	// cache stores loaded files by absolute path.
	cache map[string]*File

	// Lookup resolves a target name to its configuration.
	Lookup func(name string) (*graphsync.TargetConfig, error)
}

// NewLoader creates a loader resolving targets from cfg.
func NewLoader(cfg *graphsync.Config) *Loader {
	return &Loader{
		cache:  make(map[string]*File),
		Lookup: cfg.Target,
	}
}

// Load loads a batch file from the given path.
// Relative paths are resolved from the current working directory.
// Returns a cached file if already loaded.
func (l *Loader) Load(path string) (*File, error) {
	absPath, err := resolvePath(path)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	if f, ok := l.cache[absPath]; ok {
		return f, nil
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // G304: batch paths come from the command line
	if err != nil {
		return nil, &LoadError{Path: absPath, Cause: err}
	}

	batches, err := Decode(data, l.Lookup)
	if err != nil {
		return nil, &LoadError{Path: absPath, Cause: err}
	}

	f := &File{Path: absPath, Batches: batches}
	l.cache[absPath] = f

	return f, nil
}

// resolvePath returns the absolute path of an existing file, trying the
// .yaml and .yml extensions when path has none.
func resolvePath(path string) (string, error) {
	path = filepath.Clean(path)

	if _, err := os.Stat(path); err == nil {
		return filepath.Abs(path)
	}

	if filepath.Ext(path) == "" {
		for _, ext := range []string{".yaml", ".yml"} {
			if _, err := os.Stat(path + ext); err == nil {
				return filepath.Abs(path + ext)
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrBatchNotFound, path)
}

// Clear clears the cache.
func (l *Loader) Clear() {
	l.cache = make(map[string]*File)
}

// Cached returns all cached files.
func (l *Loader) Cached() map[string]*File {
	result := make(map[string]*File, len(l.cache))
	maps.Copy(result, l.cache)

	return result
}
