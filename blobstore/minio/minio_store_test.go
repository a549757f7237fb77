package minio

import (
	"context"
	"io"
	"testing"

	"github.com/hupe1980/bulkmeans/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	bucket := "test-bulkmeans"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	wb, err := store.Create(ctx, "points.txt")
	require.NoError(t, err)
	_, err = wb.Write([]byte("0 0\n0 1\n10 0\n10 1\n"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())
	defer func() { _ = client.RemoveObject(ctx, bucket, "test-prefix/points.txt", minio.RemoveObjectOptions{}) }()

	blob, err := store.Open(ctx, "points.txt")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(19), blob.Size())

	rc, err := blob.ReadRange(ctx, 8, 4)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "10 0", string(part))

	_, err = store.Open(ctx, "missing.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
