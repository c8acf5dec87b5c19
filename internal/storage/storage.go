package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// ErrInvalidPath is returned for object paths that escape their bucket.
var ErrInvalidPath = errors.New("invalid object path")

// Store is the byte-storage collaborator used for uploaded media.
type Store interface {
	// Put writes the object and returns its public URL.
	Put(ctx context.Context, bucket, objectPath string, r io.Reader) (string, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, objectPath string) error
}

// FileStore keeps one directory per bucket on an afero filesystem and serves
// objects under publicURL/<bucket>/<path>.
type FileStore struct {
	fs        afero.Fs
	publicURL string
}

// NewFileStore creates a FileStore rooted at root on the OS filesystem.
func NewFileStore(root, publicURL string) *FileStore {
	return NewFileStoreFs(afero.NewBasePathFs(afero.NewOsFs(), root), publicURL)
}

// NewFileStoreFs creates a FileStore over an arbitrary filesystem.
func NewFileStoreFs(fs afero.Fs, publicURL string) *FileStore {
	return &FileStore{fs: fs, publicURL: strings.TrimRight(publicURL, "/")}
}

// Fs exposes the filesystem so the server can serve stored files.
func (s *FileStore) Fs() afero.Fs {
	return s.fs
}

func objectKey(bucket, objectPath string) (string, error) {
	clean := path.Clean("/" + objectPath)
	if bucket == "" || strings.Contains(bucket, "/") || clean == "/" {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidPath, bucket, objectPath)
	}
	return path.Join(bucket, clean), nil
}

func (s *FileStore) Put(ctx context.Context, bucket, objectPath string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key, err := objectKey(bucket, objectPath)
	if err != nil {
		return "", err
	}

	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", fmt.Errorf("failed to create bucket directory: %w", err)
	}

	f, err := s.fs.OpenFile(key, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.Remove(key)
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

func (s *FileStore) Delete(ctx context.Context, bucket, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := objectKey(bucket, objectPath)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
