// Package persistence pairs the object store holding original files with the
// relational store holding resume records. Every operation is scoped to one owner.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/resumeflow/pkg/resume"
)

// ErrObjectExists is returned by a FileStore that refuses to overwrite a key.
var ErrObjectExists = errors.New("object already exists")

// ErrObjectNotFound is returned by a FileStore for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// FileStore is a binary object store.
type FileStore interface {
	// Put stores data under key and returns a durable URL. It must not overwrite an existing key.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Records это порт реляционного хранилища записей резюме.
type Records interface {
	Create(ctx context.Context, rec resume.Record) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]resume.Record, error)
	GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (resume.Record, error)
	// DeleteForOwner returns the deleted record for file cleanup.
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) (resume.Record, error)
}

const keyAttempts = 3

type Gateway struct {
	files   FileStore
	records Records
	log     *slog.Logger
	now     func() time.Time
}

func NewGateway(files FileStore, records Records, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{files: files, records: records, log: logger, now: time.Now}
}

// StoreFile writes data under "{ownerID}-{unixMillis}.{ext}". A key collision
// moves the timestamp forward by one millisecond.
func (g *Gateway) StoreFile(ctx context.Context, ownerID uuid.UUID, fileName string, data []byte, mimeType string) (resume.StoredFile, error) {
	ms := g.now().UnixMilli()
	ext := extension(fileName)
	for i := 0; i < keyAttempts; i++ {
		key := fmt.Sprintf("%s-%d.%s", ownerID, ms+int64(i), ext)
		url, err := g.files.Put(ctx, key, data, mimeType)
		if errors.Is(err, ErrObjectExists) {
			continue
		}
		if err != nil {
			return resume.StoredFile{}, fmt.Errorf("store file: %w", err)
		}
		return resume.StoredFile{Key: key, URL: url, Type: mimeType, Size: int64(len(data))}, nil
	}
	return resume.StoredFile{}, fmt.Errorf("store file: %w", ErrObjectExists)
}

// RecordResume inserts a record referencing file and returns its id.
func (g *Gateway) RecordResume(ctx context.Context, ownerID uuid.UUID, fileName string, file resume.StoredFile, data resume.StructuredResume, rawText string, status resume.Status) (uuid.UUID, error) {
	rec := resume.NewRecord(ownerID, fileName, file, data, rawText, g.now())
	rec.Status = status
	if err := g.records.Create(ctx, rec); err != nil {
		return uuid.Nil, fmt.Errorf("record resume: %w", err)
	}
	return rec.ID, nil
}

func (g *Gateway) ListResumes(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]resume.Record, error) {
	recs, err := g.records.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []resume.Record{}
	}
	return recs, nil
}

func (g *Gateway) GetResume(ctx context.Context, ownerID, id uuid.UUID) (resume.Record, error) {
	return g.records.GetForOwner(ctx, ownerID, id)
}

// OpenFile returns the record and a reader over its stored file. The caller closes the reader.
func (g *Gateway) OpenFile(ctx context.Context, ownerID, id uuid.UUID) (resume.Record, io.ReadCloser, error) {
	rec, err := g.records.GetForOwner(ctx, ownerID, id)
	if err != nil {
		return resume.Record{}, nil, err
	}
	rc, err := g.files.Open(ctx, rec.FilePath)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return resume.Record{}, nil, resume.ErrNotFound
		}
		return resume.Record{}, nil, fmt.Errorf("open file: %w", err)
	}
	return rec, rc, nil
}

// DeleteResume removes the record, then its file. File removal is best effort.
func (g *Gateway) DeleteResume(ctx context.Context, ownerID, id uuid.UUID) error {
	rec, err := g.records.DeleteForOwner(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if rec.FilePath == "" {
		return nil
	}
	if err := g.DiscardFile(ctx, resume.StoredFile{Key: rec.FilePath}); err != nil {
		g.log.Warn("delete stored file", "resume_id", rec.ID, "key", rec.FilePath, "error", err)
	}
	return nil
}

// DiscardFile deletes a stored file that never got a record.
func (g *Gateway) DiscardFile(ctx context.Context, file resume.StoredFile) error {
	if err := g.files.Delete(ctx, file.Key); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return err
	}
	return nil
}

func extension(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filepath.Base(fileName)), "."))
	if ext == "" || strings.ContainsAny(ext, `/\ `) {
		return "pdf"
	}
	return ext
}
