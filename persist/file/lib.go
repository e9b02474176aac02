package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Persist implements the dotted.Persist interface for storing and loading
// snapshot artifacts as files.
//
// Store truncates and rewrites the file in place; it does not write to a
// temporary file and rename, so an interrupted write can leave a partial
// artifact behind.
type Persist struct {
	basepath string
}

// Exists reports whether the named file is present.
func (p Persist) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(p.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Load loads the bytes persisted in the named file.
func (p Persist) Load(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(p.path(name))
}

// Store replaces the named file with the given bytes, creating parent
// directories as needed.
func (p Persist) Store(ctx context.Context, name string, bytes []byte) error {
	path := p.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, bytes, 0o644)
}

// Locate returns the absolute path of the named file.
func (p Persist) Locate(name string) string {
	path := p.path(name)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (p Persist) path(name string) string {
	return filepath.Join(p.basepath, name)
}

// NewPersistForPath returns a Persist that loads and stores artifacts as
// files in the directory at the given path.
//
//	p := NewPersistForPath("/var/lib/prefs")
//	store, err := dotted.Open(ctx, p, "prefs.json")
func NewPersistForPath(path string) Persist {
	return Persist{path}
}
