package bsp

// Var is a single value replicated on every worker.
type Var[T any] struct {
	vals []T
}

// NewVar creates a Var with the zero value on every worker.
func NewVar[T any](w *World) *Var[T] {
	return &Var[T]{vals: make([]T, w.size)}
}

// Value returns the calling worker's replica.
func (v *Var[T]) Value(wk *Worker) T {
	return v.vals[wk.rank]
}

// Broadcast writes x to every worker's replica. Visible after the next Sync.
func (v *Var[T]) Broadcast(x T) {
	for i := range v.vals {
		v.vals[i] = x
	}
}
