// Package bulkmeans clusters 2-D points with Lloyd's k-means across
// cooperating workers.
//
// Points are read from a whitespace separated "x y" stream held in any
// blobstore.BlobStore (local disk, memory, S3, MinIO). In the default BSP
// mode every worker loads only its own contiguous block of the first n
// points, assigns them to the nearest centroid, and sends per-cluster sums
// to a single coordinator that recomputes the centroids and decides, for
// everyone, whether to stop. The data-parallel mode runs the same algorithm
// as two kernels per iteration on a goroutine pool.
//
// # Quick Start
//
//	ctx := context.Background()
//	src := bulkmeans.FromBlob(blobstore.NewLocalStore("."), "points.txt")
//	res, err := bulkmeans.Run(ctx, src, 10000, bulkmeans.WithK(5), bulkmeans.WithIterations(20))
//	if err != nil {
//		log.Fatal(err)
//	}
//	_ = bulkmeans.WriteResult(ctx, blobstore.NewLocalStore("."), "result.out", res)
//
// The result holds one centroid snapshot per iteration plus the initial
// placement. Iterations that never ran because the clustering converged
// early hold Sentinel.
package bulkmeans
