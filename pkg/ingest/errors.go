package ingest

import "errors"

var (
	ErrMissingFile         = errors.New("missing file")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNoExtractableText   = errors.New("no extractable text")
	ErrUnauthorized        = errors.New("authentication required")
	// ErrPersistence wraps object-store and database write failures.
	ErrPersistence = errors.New("persistence error")
)

// ValidationError is a user-correctable rejection. Message is safe to show to the caller.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error, msg string) error {
	return &ValidationError{Err: err, Message: msg}
}
