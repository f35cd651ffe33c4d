package file

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// Storage reads layer images and writes composited outputs on an afero
// filesystem. Outputs are written to a temporary file in the destination
// directory and renamed into place, so a failed save never leaves a
// truncated image behind.
type Storage struct {
	fs afero.Fs
}

// NewStorage creates a Storage on top of fs.
func NewStorage(fs afero.Fs) *Storage {
	return &Storage{fs: fs}
}

// Save writes src to dir/filename, creating missing folders. filename may
// contain subfolders.
// Returns the path of the written file.
func (s *Storage) Save(ctx context.Context, dir, filename string, src io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, filename)
	parent := filepath.Dir(dst)

	if err := s.fs.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output folder: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, parent, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		s.fs.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if err := s.fs.Rename(tmp.Name(), dst); err != nil {
		s.fs.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return dst, nil
}

// Load opens the file at path for reading.
func (s *Storage) Load(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load file: %w", err)
	}

	return f, nil
}
