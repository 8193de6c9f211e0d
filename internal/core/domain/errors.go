package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrSummaryNotFound  = errors.New("summary not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

type RejectionReason string

const (
	RejectMissingFile          RejectionReason = "missing_file"
	RejectFileTooLarge         RejectionReason = "file_too_large"
	RejectUnsupportedExtension RejectionReason = "unsupported_extension"
	RejectContentMismatch      RejectionReason = "content_mismatch"
)

// RejectionError reports an upload refused before it reaches the pipeline.
type RejectionError struct {
	Reason   RejectionReason
	Filename string
	Detail   string
}

func (e *RejectionError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("upload rejected (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("upload rejected (%s) for %q: %s", e.Reason, e.Filename, e.Detail)
}

func (e *RejectionError) Unwrap() error {
	return ErrInvalidInput
}

func Reject(reason RejectionReason, filename, detail string) error {
	return &RejectionError{Reason: reason, Filename: filename, Detail: detail}
}

func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
