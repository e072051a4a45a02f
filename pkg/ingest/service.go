// Package ingest turns an uploaded PDF into a persisted structured resume:
// validate, extract text, structure it, store the file and the record.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/resumeflow/pkg/auth"
	"github.com/artem13815/resumeflow/pkg/document"
	"github.com/artem13815/resumeflow/pkg/resume"
)

const DefaultMaxBytes = 10 << 20

// Upload is one file from a request. Open is called only after every gate passes.
type Upload struct {
	Filename     string
	ContentType  string
	Size         int64
	LastModified time.Time
	Open         func() (io.ReadCloser, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (document.Text, error)
}

type Structurer interface {
	Extract(ctx context.Context, text string) (resume.StructuredResume, error)
}

// Gateway is the slice of persistence.Gateway used by ingestion.
type Gateway interface {
	StoreFile(ctx context.Context, ownerID uuid.UUID, fileName string, data []byte, mimeType string) (resume.StoredFile, error)
	RecordResume(ctx context.Context, ownerID uuid.UUID, fileName string, file resume.StoredFile, data resume.StructuredResume, rawText string, status resume.Status) (uuid.UUID, error)
	DiscardFile(ctx context.Context, file resume.StoredFile) error
}

// Event is published after a record is durably saved.
type Event struct {
	ResumeID  uuid.UUID     `json:"resumeId"`
	UserID    uuid.UUID     `json:"userId"`
	FileName  string        `json:"fileName"`
	Status    resume.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

type Notifier interface {
	ResumeCompleted(ctx context.Context, ev Event) error
}

type Deps struct {
	Text       TextExtractor
	Structurer Structurer
	Store      Gateway
	// Notifier is optional.
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// DefaultNotifyTimeout bounds a completed-event publish so a stalled broker cannot hold the response.
const DefaultNotifyTimeout = 3 * time.Second

type Options struct {
	// MaxBytes is the upload ceiling; DefaultMaxBytes when zero.
	MaxBytes      int64
	// NotifyTimeout bounds Notifier.ResumeCompleted; DefaultNotifyTimeout when zero.
	NotifyTimeout time.Duration
}

type FileInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
	LastModified int64  `json:"lastModified"`
}

type PreviewInfo struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
	document.Info
}

type Preview struct {
	Text      string      `json:"text"`
	PageCount int         `json:"pageCount"`
	Info      PreviewInfo `json:"info"`
}

// Result is the outcome of one successful ingestion.
type Result struct {
	ResumeID   uuid.UUID               `json:"resumeId"`
	File       FileInfo                `json:"file"`
	ParsedData resume.StructuredResume `json:"parsedData"`
	Preview    Preview                 `json:"preview"`
}

type Service struct {
	text     TextExtractor
	extract  Structurer
	store    Gateway
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
	maxBytes int64

	notifyTimeout time.Duration
}

func NewService(d Deps, o Options) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = DefaultNotifyTimeout
	}
	return &Service{
		text:     d.Text,
		extract:  d.Structurer,
		store:    d.Store,
		notifier: d.Notifier,
		log:      d.Logger,
		now:      d.Now,
		maxBytes: o.MaxBytes,

		notifyTimeout: o.NotifyTimeout,
	}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Ingest runs the gates (file present, PDF type, size, principal) in that order,
// then extracts, structures and persists. Every failure aborts the whole ingestion.
func (s *Service) Ingest(ctx context.Context, p *auth.Principal, up *Upload) (Result, error) {
	if err := s.validate(p, up); err != nil {
		return Result{}, err
	}
	log := s.log.With("resume_owner", p.UserID, "file_name", up.Filename)

	data, err := s.read(up)
	if err != nil {
		return Result{}, err
	}

	text, err := s.text.Extract(ctx, data)
	if err != nil {
		log.Error("extract pdf text", "error", err)
		return Result{}, err
	}
	raw := strings.TrimSpace(text.String())
	if raw == "" {
		log.Info("pdf has no text layer", "page_count", text.PageCount())
		return Result{}, invalid(ErrNoExtractableText, "No extractable text found in PDF")
	}

	parsed, err := s.extract.Extract(ctx, raw)
	if err != nil {
		log.Error("structured extraction", "page_count", text.PageCount(), "error", err)
		return Result{}, err
	}

	file, err := s.store.StoreFile(ctx, p.UserID, up.Filename, data, up.ContentType)
	if err != nil {
		log.Error("store file", "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	id, err := s.store.RecordResume(ctx, p.UserID, up.Filename, file, parsed, raw, resume.StatusCompleted)
	if err != nil {
		log.Error("record resume", "key", file.Key, "error", err)
		if derr := s.store.DiscardFile(context.WithoutCancel(ctx), file); derr != nil {
			log.Warn("discard orphaned file", "key", file.Key, "error", derr)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	log.Info("resume ingested", "resume_id", id, "page_count", text.PageCount(), "size", len(data))

	s.notify(ctx, log, Event{
		ResumeID:  id,
		UserID:    p.UserID,
		FileName:  up.Filename,
		Status:    resume.StatusCompleted,
		Timestamp: s.now().UTC(),
	})

	lastMod := up.LastModified
	if lastMod.IsZero() {
		lastMod = s.now()
	}
	return Result{
		ResumeID: id,
		File: FileInfo{
			Name:         up.Filename,
			Type:         up.ContentType,
			Size:         int64(len(data)),
			URL:          file.URL,
			LastModified: lastMod.UnixMilli(),
		},
		ParsedData: parsed,
		Preview: Preview{
			Text:      raw,
			PageCount: text.PageCount(),
			Info: PreviewInfo{
				FileName: up.Filename,
				FileSize: int64(len(data)),
				FileType: up.ContentType,
				Info:     text.Info,
			},
		},
	}, nil
}

func (s *Service) validate(p *auth.Principal, up *Upload) error {
	if up == nil || up.Open == nil {
		return invalid(ErrMissingFile, "No valid file provided")
	}
	if !strings.Contains(strings.ToLower(up.ContentType), "pdf") {
		return invalid(ErrUnsupportedFileType, "Only PDF files are supported")
	}
	if up.Size > s.maxBytes {
		return invalid(ErrFileTooLarge, fmt.Sprintf("File size must be less than %dMB", s.maxBytes>>20))
	}
	if p == nil || p.UserID == uuid.Nil {
		return ErrUnauthorized
	}
	return nil
}

// read enforces the ceiling again on the actual bytes, the declared size may lie.
func (s *Service) read(up *Upload) ([]byte, error) {
	rc, err := up.Open()
	if err != nil {
		return nil, invalid(ErrMissingFile, "No valid file provided")
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, s.maxBytes+1))
	if err != nil {
		return nil, invalid(ErrMissingFile, "No valid file provided")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, invalid(ErrFileTooLarge, fmt.Sprintf("File size must be less than %dMB", s.maxBytes>>20))
	}
	if len(data) == 0 {
		return nil, invalid(ErrMissingFile, "No valid file provided")
	}
	return data, nil
}

func (s *Service) notify(ctx context.Context, log *slog.Logger, ev Event) {
	if s.notifier == nil {
		return
	}
	// The record is already persisted, so a cancelled request still gets its event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.ResumeCompleted(ctx, ev); err != nil {
		log.Warn("publish resume event", "resume_id", ev.ResumeID, "error", err)
	}
}
