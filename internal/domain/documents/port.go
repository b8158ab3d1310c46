package documents

import (
	"context"
	"errors"
	"io"
)

// Handle identifies a stored document.
type Handle string

// Kind of stored document.
type Kind string

const (
	KindProject Kind = "documents"
	KindPolicy  Kind = "policies"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrUnsupported = errors.New("document type has no text representation")
	ErrTooLarge    = errors.New("document too large for analysis")
)

// Source returns plain text for a previously stored document.
type Source interface {
	Text(ctx context.Context, h Handle) (string, error)
}

// Store keeps uploaded documents.
type Store interface {
	Source
	Put(ctx context.Context, kind Kind, name, contentType string, r io.Reader, size int64) (Handle, error)
}
