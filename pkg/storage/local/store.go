// Package local stores uploaded files on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/artem13815/resumeflow/pkg/persistence"
)

type Store struct {
	baseDir string
	baseURL string
}

// New prepares baseDir. URLs are baseURL + "/" + key.
func New(baseDir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare upload dir: %w", err)
	}
	return &Store{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Store) Name() string { return "local" }

// Check verifies the upload directory is still present.
func (s *Store) Check(ctx context.Context) error {
	fi, err := os.Stat(s.baseDir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", s.baseDir)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", persistence.ErrObjectExists
		}
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return s.baseURL + "/" + key, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.ErrObjectNotFound
	}
	return f, err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.ErrObjectNotFound
	}
	return err
}

func (s *Store) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.baseDir, key), nil
}
