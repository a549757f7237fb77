// Package testutil provides testing utilities for bulkmeans.
//
// This package is intended for use in tests only. It provides seeded point
// generators, the text encoding used for input files, and a sequential
// reference k-means used as ground truth.
//
// # Random Points
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.GridPoints(1000, 100)           // integer coordinates in [0,100)
//	pts = rng.ClusteredPoints(1000, 4, 100, 3) // 4 blobs, integer coordinates
//
// # Ground Truth
//
//	history, converged := testutil.ReferenceLloyd(pts, initial, iterations)
package testutil
