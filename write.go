package bulkmeans

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/bulkmeans/blobstore"
	"github.com/hupe1980/bulkmeans/codec"
	"github.com/hupe1980/bulkmeans/internal/history"
)

// Report is the machine-readable summary of a run.
type Report struct {
	Mode           string  `json:"mode"`
	Workers        int     `json:"workers"`
	Points         int     `json:"points"`
	K              int     `json:"k"`
	MaxIterations  int     `json:"max_iterations"`
	Iterations     int     `json:"iterations"`
	Converged      bool    `json:"converged"`
	FixedPoint     bool    `json:"fixed_point"`
	State          string  `json:"state"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Centroids      []Point `json:"centroids"`
	EmptyClusters  []int   `json:"empty_clusters,omitempty"`
}

// Report summarizes the result.
func (r *Result) Report() Report {
	return Report{
		Mode:           r.Mode.String(),
		Workers:        r.Workers,
		Points:         r.Points,
		K:              r.K,
		MaxIterations:  r.MaxIterations,
		Iterations:     r.Iterations,
		Converged:      r.Converged(),
		FixedPoint:     r.FixedPoint,
		State:          r.State.String(),
		ElapsedSeconds: r.Elapsed.Seconds(),
		Centroids:      r.Centroids,
		EmptyClusters:  r.EmptyClusters,
	}
}

// WriteResult writes the full centroid history of res to name as
// "<iteration> <x> <y>" lines. Names ending in .zst/.zstd or .lz4 are
// compressed accordingly. Nothing is left behind on failure.
func WriteResult(ctx context.Context, store blobstore.BlobStore, name string, res *Result) error {
	return writeBlob(ctx, store, name, func(w io.Writer) error {
		cw, err := history.NewWriter(w, history.CompressionFor(name))
		if err != nil {
			return err
		}
		if _, err := res.History.WriteTo(cw); err != nil {
			_ = cw.Close()
			return err
		}
		return cw.Close()
	})
}

// ReadResult reads a history written by WriteResult.
func ReadResult(ctx context.Context, store blobstore.BlobStore, name string) (*History, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer blob.Close()

	rc, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer rc.Close()

	dr, err := history.NewReader(rc, history.CompressionFor(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer dr.Close()

	return history.Read(dr)
}

// WriteReport encodes res.Report() with c (codec.Default if nil) to name.
func WriteReport(ctx context.Context, store blobstore.BlobStore, name string, res *Result, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	data, err := c.Marshal(res.Report())
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return writeBlob(ctx, store, name, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func writeBlob(ctx context.Context, store blobstore.BlobStore, name string, fn func(io.Writer) error) error {
	wb, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := fn(wb); err != nil {
		return errors.Join(fmt.Errorf("write %s: %w", name, err), wb.Abort())
	}
	if err := wb.Close(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}
