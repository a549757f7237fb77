package bsp

import (
	"context"
	"sync"
)

// Barrier is a reusable barrier for a fixed number of parties.
type Barrier struct {
	mu      sync.Mutex
	parties int
	waiting int
	release chan struct{}
}

// NewBarrier creates a barrier for parties participants. parties must be >= 1.
func NewBarrier(parties int) *Barrier {
	if parties < 1 {
		panic("bsp: barrier needs at least one party")
	}
	return &Barrier{
		parties: parties,
		release: make(chan struct{}),
	}
}

// Wait blocks until all parties have called Wait for the current phase or
// ctx is done. Writes made before Wait happen before any party returns from
// the same phase.
func (b *Barrier) Wait(ctx context.Context) error {
	b.mu.Lock()
	release := b.release
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.release = make(chan struct{})
		b.mu.Unlock()
		close(release)
		return nil
	}
	b.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Parties returns the number of participants.
func (b *Barrier) Parties() int {
	return b.parties
}
