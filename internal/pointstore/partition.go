// Package pointstore partitions the global point index space over workers
// and loads each worker's slice from a blob.
package pointstore

// Slice is a contiguous range of global point indices owned by one worker.
type Slice struct {
	Offset int
	Len    int
}

// End returns the first index past the slice.
func (s Slice) End() int {
	return s.Offset + s.Len
}

// Block returns the slice of [0,n) owned by rank in a block partition over
// size workers. Every worker gets n/size points and the first n%size
// workers one more, so slices are disjoint, ordered by rank and cover [0,n).
func Block(n, size, rank int) Slice {
	base, rem := n/size, n%size
	if rank < rem {
		return Slice{Offset: rank * (base + 1), Len: base + 1}
	}
	return Slice{Offset: rem*(base+1) + (rank-rem)*base, Len: base}
}

// Partition returns the slices of all workers, indexed by rank.
func Partition(n, size int) []Slice {
	out := make([]Slice, size)
	for r := range out {
		out[r] = Block(n, size, r)
	}
	return out
}
