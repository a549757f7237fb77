// Package blobstore abstracts where point files are read from and where
// results are written to.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads through mmap
//   - MemoryStore: in-process map, for tests and embedding
//   - s3.Store: Amazon S3 with range reads and managed uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// Every worker of a run opens the input blob on its own and reads only the
// prefix it needs through ReadRange, so implementations must be safe for
// concurrent use.
package blobstore
