package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExt = ".json.gz"

// FileStore keeps one file per snapshot under a directory. Writes go to a
// temporary file that is renamed into place.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir when needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(s.dir, name+fileExt), nil
}

func (s *FileStore) Save(ctx context.Context, name string, v any) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	data, err := Encode(name, v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, name string, v any) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read snapshot: %w", err)
	}

	_, err = Decode(data, v)
	return err
}
