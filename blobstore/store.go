package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore opens blobs for reading and creates blobs for writing.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible
	// once Close returns without error.
	Create(ctx context.Context, name string) (WritableBlob, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
	// ReadRange returns a reader over [off, off+length). Ranges past the end
	// are truncated; a range starting at or after Size yields an empty reader.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Abort discards everything written so far. Calling Close after Abort
	// is a no-op.
	Abort() error
}

// NewReader returns a reader over the whole blob.
func NewReader(ctx context.Context, b Blob) (io.ReadCloser, error) {
	return b.ReadRange(ctx, 0, b.Size())
}

func emptyReader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(nil))
}

// clampRange limits [off, off+length) to a blob of the given size. ok is
// false if nothing remains.
func clampRange(size, off, length int64) (start, end int64, ok bool) {
	if off < 0 || length <= 0 || off >= size {
		return 0, 0, false
	}
	end = off + length
	if end > size || end < off {
		end = size
	}
	return off, end, true
}
