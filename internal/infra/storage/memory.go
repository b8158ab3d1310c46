package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bryanwahyu/carbon-validator/internal/domain/documents"
)

type blob struct {
	contentType string
	data        []byte
}

// MemoryStore is a documents.Store kept in process memory. It is used when MinIO
// is disabled.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[documents.Handle]blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[documents.Handle]blob)}
}

func (m *MemoryStore) Put(_ context.Context, kind documents.Kind, name, contentType string, r io.Reader, size int64) (documents.Handle, error) {
	key, err := objectKey(kind, name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = contentTypeFor(name)
	}
	h := documents.Handle(key)
	m.mu.Lock()
	m.blobs[h] = blob{contentType: contentType, data: buf.Bytes()}
	m.mu.Unlock()
	return h, nil
}

func (m *MemoryStore) Text(_ context.Context, h documents.Handle) (string, error) {
	m.mu.RLock()
	b, ok := m.blobs[h]
	m.mu.RUnlock()
	if !ok {
		return "", documents.ErrNotFound
	}
	if !isText(b.contentType, string(h)) {
		return "", fmt.Errorf("%w: %s (%s)", documents.ErrUnsupported, h, b.contentType)
	}
	return readText(bytes.NewReader(b.data), string(h), maxTextBytes)
}
