package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes objects below a directory that is served under a URL
// prefix.
type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory %q: %w", basePath, err)
	}
	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Root is the directory objects are written to.
func (s *LocalStorage) Root() string {
	return s.basePath
}

// Put writes data to basePath/key and returns baseURL/key.
func (s *LocalStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	clean, dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %q: %w", clean, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write %q: %w", clean, err)
	}

	segments := strings.Split(clean, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/"), nil
}

// Delete removes basePath/key. A missing file is not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	clean, dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %q: %w", clean, err)
	}
	return nil
}

// resolve confines key to basePath.
func (s *LocalStorage) resolve(key string) (clean, dst string, err error) {
	clean = path.Clean("/" + key)[1:]
	if clean == "" {
		return "", "", fmt.Errorf("invalid object key %q", key)
	}
	return clean, filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}
