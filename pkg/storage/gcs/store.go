// Package gcs stores uploaded files in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/artem13815/resumeflow/pkg/persistence"
)

type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// New uses Application Default Credentials.
func New(ctx context.Context, bucket string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return NewWithClient(client, bucket), nil
}

func NewWithClient(client *storage.Client, bucket string) *Store {
	return &Store{client: client, bucket: client.Bucket(bucket), name: bucket}
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Name() string { return "gcs" }

func (s *Store) Check(ctx context.Context) error {
	_, err := s.bucket.Attrs(ctx)
	return err
}

// Put writes the object only if it doesn't already exist.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	w := s.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", s.writeErr(key, err)
	}
	if err := w.Close(); err != nil {
		return "", s.writeErr(key, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.name, url.PathEscape(key)), nil
}

func (s *Store) writeErr(key string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return persistence.ErrObjectExists
	}
	return fmt.Errorf("gcs write %s: %w", key, err)
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, persistence.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	return r, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return persistence.ErrObjectNotFound
	}
	if err != nil {
		return fmt.Errorf("gcs delete %s: %w", key, err)
	}
	return nil
}
