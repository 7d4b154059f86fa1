package storage

import (
	"os"
	"path/filepath"

	crerr "github.com/cockroachdb/errors"
)

// FileBackend keeps each document in its own JSON file under a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, crerr.Wrap(err, "creating checkpoint directory")
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileBackend) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(f.path(name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, crerr.Wrapf(err, "reading %s", f.path(name))
	}
	return data, nil
}

func (f *FileBackend) Put(name string, data []byte) error {
	if err := os.WriteFile(f.path(name), data, 0o644); err != nil {
		return crerr.Wrapf(err, "writing %s", f.path(name))
	}
	return nil
}

func (f *FileBackend) Close() error { return nil }
