package storage

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/carbon-validator/internal/domain/documents"
)

func objectKey(kind documents.Kind, name string) (string, error) {
	switch kind {
	case documents.KindProject, documents.KindPolicy:
	default:
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
	return fmt.Sprintf("%s/%s/%s", kind, uuid.NewString(), sanitizeName(name)), nil
}

// sanitizeName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func sanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "document"
	}
	return out
}

// mimeType sederhana
func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".html":
		return "text/html"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// isText reports whether an object can be handed to a prompt as is.
func isText(contentType, key string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if strings.HasPrefix(ct, "text/") || ct == "application/json" {
		return true
	}
	switch strings.ToLower(path.Ext(key)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// readText reads at most limit bytes. A longer document is an error, never a prefix.
func readText(r io.Reader, key string, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", documents.ErrTooLarge, key, limit)
	}
	return string(data), nil
}
