package pointstore

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/hupe1980/bulkmeans/blobstore"
	"github.com/hupe1980/bulkmeans/internal/point"
	"github.com/hupe1980/bulkmeans/resource"
)

// ErrInputExhausted is returned when the input holds fewer points than a
// slice needs.
var ErrInputExhausted = errors.New("pointstore: input exhausted")

// ExhaustedError reports how far a load got before the input ran out.
type ExhaustedError struct {
	Slice Slice
	Got   int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("input exhausted: slice [%d,%d) needs %d points, read %d",
		e.Slice.Offset, e.Slice.End(), e.Slice.Len, e.Got)
}

func (e *ExhaustedError) Unwrap() error { return ErrInputExhausted }

// Source yields the points of one slice of the global point sequence.
type Source interface {
	Load(ctx context.Context, s Slice) ([]point.Point, error)
}

// PointBytes is the in-memory size of one loaded point.
const PointBytes = int64(unsafe.Sizeof(point.Point{}))

// BlobSource reads points from a whitespace separated text blob. Each load
// streams the blob from the start, skipping Offset pairs, and stops as soon
// as the slice is full.
type BlobSource struct {
	Store blobstore.BlobStore
	Name  string
	// Resources is optional.
	Resources *resource.Controller
}

// Load implements Source.
func (b *BlobSource) Load(ctx context.Context, s Slice) ([]point.Point, error) {
	if err := b.Resources.AcquireMemory(ctx, int64(s.Len)*PointBytes); err != nil {
		return nil, err
	}
	pts, err := b.load(ctx, s)
	if err != nil {
		b.Resources.ReleaseMemory(int64(s.Len) * PointBytes)
		return nil, err
	}
	return pts, nil
}

func (b *BlobSource) load(ctx context.Context, s Slice) ([]point.Point, error) {
	if err := b.Resources.AcquireLoad(ctx); err != nil {
		return nil, err
	}
	defer b.Resources.ReleaseLoad()

	blob, err := b.Store.Open(ctx, b.Name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", b.Name, err)
	}
	defer blob.Close()

	rc, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.Name, err)
	}
	defer rc.Close()

	sc := point.NewScanner(resource.NewRateLimitedReader(ctx, rc, b.Resources))
	pts := make([]point.Point, 0, s.Len)
	for len(pts) < s.Len && sc.Scan() {
		if sc.Count() > s.Offset {
			pts = append(pts, sc.Point())
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, point.ErrUnpaired) {
			return nil, &ExhaustedError{Slice: s, Got: len(pts)}
		}
		return nil, fmt.Errorf("read %s: %w", b.Name, err)
	}
	if len(pts) < s.Len {
		return nil, &ExhaustedError{Slice: s, Got: len(pts)}
	}
	return pts, nil
}

// Release returns the memory reserved for a slice loaded by Load.
func (b *BlobSource) Release(s Slice) {
	b.Resources.ReleaseMemory(int64(s.Len) * PointBytes)
}

// SliceSource serves points already in memory.
type SliceSource []point.Point

// Load implements Source. The returned slice aliases the source.
func (p SliceSource) Load(_ context.Context, s Slice) ([]point.Point, error) {
	if s.End() > len(p) {
		got := len(p) - s.Offset
		if got < 0 {
			got = 0
		}
		return nil, &ExhaustedError{Slice: s, Got: got}
	}
	return p[s.Offset:s.End():s.End()], nil
}
