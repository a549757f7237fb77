package bsp

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// World is a group of p workers running in lockstep.
type World struct {
	size    int
	barrier *Barrier
}

// NewWorld creates a world of size workers.
func NewWorld(size int) (*World, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &World{
		size:    size,
		barrier: NewBarrier(size),
	}, nil
}

// Size returns the number of workers.
func (w *World) Size() int {
	return w.size
}

// Spawn runs fn once per worker and waits for all of them. The first error
// cancels the context shared by all workers and is returned.
func (w *World) Spawn(ctx context.Context, fn func(*Worker) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < w.size; rank++ {
		wk := &Worker{ctx: gctx, world: w, rank: rank}
		g.Go(func() error {
			if err := fn(wk); err != nil {
				return fmt.Errorf("worker %d: %w", wk.rank, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Worker is one participant's view of the world.
type Worker struct {
	ctx   context.Context
	world *World
	rank  int
}

// Rank returns the worker's index in [0, Size).
func (wk *Worker) Rank() int {
	return wk.rank
}

// Size returns the number of workers in the world.
func (wk *Worker) Size() int {
	return wk.world.size
}

// Context is canceled when any worker fails or the parent context is done.
func (wk *Worker) Context() context.Context {
	return wk.ctx
}

// Sync is the superstep boundary: it returns once every worker has called
// Sync, making all puts issued before it visible.
func (wk *Worker) Sync() error {
	return wk.world.barrier.Wait(wk.ctx)
}
