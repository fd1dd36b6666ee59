// Package storage holds the backends that keep attachment bytes.
package storage

import (
	"context"
	"io"
)

// FileStore persists attachment content under a caller-chosen name and
// returns the location that is written to attachments.file_path.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, location string) error
}
