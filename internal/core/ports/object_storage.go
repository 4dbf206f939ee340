package ports

import (
	"context"
	"io"
)

// ObjectStorage stores uploaded files and returns their public URL.
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
