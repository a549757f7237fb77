// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "runs/")
//	res, err := bulkmeans.Run(ctx, bulkmeans.FromBlob(store, "points.txt"), n)
//
// Workers read their prefix of the point file with ranged GETs; results are
// streamed through the multipart upload manager.
package s3
