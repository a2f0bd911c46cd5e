package ports

import (
	"context"
	"io"
)

// BlobStore lists and fetches spectrum files from a flat namespace.
type BlobStore interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// ImageSink persists a rendered image under a path.
type ImageSink interface {
	Create(path string) (io.WriteCloser, error)
}
