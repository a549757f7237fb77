package bsp

// Coarray holds one slice of length n per worker. A worker reads and writes
// its own slice through Local and writes other workers' slices through Put.
// Reads of a slot written remotely are only valid after the next Sync.
type Coarray[T any] struct {
	slots [][]T
}

// NewCoarray allocates a coarray with n elements per worker.
func NewCoarray[T any](w *World, n int) *Coarray[T] {
	slots := make([][]T, w.size)
	for i := range slots {
		slots[i] = make([]T, n)
	}
	return &Coarray[T]{slots: slots}
}

// Local returns the calling worker's own slice.
func (c *Coarray[T]) Local(wk *Worker) []T {
	return c.slots[wk.rank]
}

// Put writes v to element i of worker dst's slice.
func (c *Coarray[T]) Put(dst, i int, v T) {
	c.slots[dst][i] = v
}

// PutAll copies vs into worker dst's slice.
func (c *Coarray[T]) PutAll(dst int, vs []T) {
	copy(c.slots[dst], vs)
}

// Get returns a copy of worker src's slice. Callers must only read slices
// that are not being written in the current superstep.
func (c *Coarray[T]) Get(src int) []T {
	out := make([]T, len(c.slots[src]))
	copy(out, c.slots[src])
	return out
}

// Len returns the number of elements per worker.
func (c *Coarray[T]) Len() int {
	if len(c.slots) == 0 {
		return 0
	}
	return len(c.slots[0])
}
