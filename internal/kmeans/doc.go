// Package kmeans implements Lloyd's k-means over 2-D points in two
// execution models that share the same step functions:
//
//   - RunBSP: p workers in bulk-synchronous lockstep, each owning a block
//     of the points. Workers push per-cluster partial sums and a changed
//     flag to one coordinator, which recomputes the centroids, decides
//     convergence and broadcasts both back before the next superstep.
//   - RunDataParallel: one process launching an assignment kernel (one
//     logical thread per point) and an update kernel (one logical thread
//     per cluster) on a goroutine pool, with a full join between phases.
//
// Both record the same centroid history for the same input.
package kmeans
