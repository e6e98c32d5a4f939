package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes objects below a directory that the HTTP server exposes
// at urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir returns the directory objects are written to.
func (s *LocalStore) Dir() string { return s.dir }

// Put copies r to the file for key.
func (s *LocalStore) Put(ctx context.Context, key, contentType string, r io.Reader) (Object, error) {
	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Object{}, fmt.Errorf("creating object directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("creating object file: %w", err)
	}
	tmp := f.Name()
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		os.Remove(tmp)
		return Object{}, fmt.Errorf("writing object: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return Object{}, fmt.Errorf("finalizing object: %w", err)
	}

	return Object{
		URL:         joinURL(s.urlPrefix, key),
		Key:         key,
		Size:        n,
		ContentType: contentType,
	}, nil
}
