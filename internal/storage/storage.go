// Package storage abstracts where templates come from and where filled
// documents go. The fill server reads templates from a Source and writes
// outputs through a Sink; implementations cover S3-compatible object storage
// and a local directory.
package storage

import (
	"context"
	"errors"
)

// DocxContentType is the MIME type filled documents are stored under.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ErrNotFound reports a key with no object behind it.
var ErrNotFound = errors.New("object not found")

// Source fetches template bytes by key.
type Source interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Sink stores output bytes under a key and returns a URL or path where the
// stored object can be reached.
type Sink interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Store is a combined template source and output sink.
type Store interface {
	Source
	Sink
}
