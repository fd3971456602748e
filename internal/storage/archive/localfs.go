package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFS implements Store on a local directory tree.
type LocalFS struct {
	basePath string
}

// NewLocalFS creates the base directory if needed.
func NewLocalFS(basePath string) (*LocalFS, error) {
	if basePath == "" {
		basePath = "archive"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive base path: %w", err)
	}
	return &LocalFS{basePath: basePath}, nil
}

func (l *LocalFS) fullPath(path string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(path))
}

func (l *LocalFS) Put(_ context.Context, path string, data []byte) error {
	full := l.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating archive directories: %w", err)
	}
	return os.WriteFile(full, data, 0o644)
}

func (l *LocalFS) Get(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(l.fullPath(path))
}

func (l *LocalFS) List(_ context.Context, prefix string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.fullPath(prefix), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(l.basePath, path)
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return paths, err
}
