package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/bulkmeans"
	"github.com/hupe1980/bulkmeans/blobstore"
	miniostore "github.com/hupe1980/bulkmeans/blobstore/minio"
	s3store "github.com/hupe1980/bulkmeans/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// location is a parsed input or output address.
type location struct {
	scheme   string // "", "s3" or "minio"
	endpoint string // minio only
	bucket   string
	key      string
}

// parseLocation accepts a local path, s3://bucket/key or
// minio://host[:port]/bucket/key.
func parseLocation(s string) (location, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return location{key: s}, nil
	}

	var loc location
	switch scheme {
	case "s3":
		loc.scheme = scheme
		loc.bucket, loc.key, _ = strings.Cut(rest, "/")
	case "minio":
		loc.scheme = scheme
		var path string
		loc.endpoint, path, _ = strings.Cut(rest, "/")
		loc.bucket, loc.key, _ = strings.Cut(path, "/")
		if loc.endpoint == "" {
			return location{}, fmt.Errorf("%w: %q has no endpoint", bulkmeans.ErrInvalidArguments, s)
		}
	default:
		return location{}, fmt.Errorf("%w: unsupported scheme %q", bulkmeans.ErrInvalidArguments, scheme)
	}
	if loc.bucket == "" || loc.key == "" {
		return location{}, fmt.Errorf("%w: %q needs a bucket and a key", bulkmeans.ErrInvalidArguments, s)
	}
	return loc, nil
}

// openStore returns the store holding loc and the blob name inside it.
func openStore(ctx context.Context, loc location, minioSecure bool) (blobstore.BlobStore, string, error) {
	switch loc.scheme {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("load aws config: %w", err)
		}
		return s3store.NewStore(awss3.NewFromConfig(awsCfg), loc.bucket, ""), loc.key, nil
	case "minio":
		client, err := minio.New(loc.endpoint, &minio.Options{
			Creds: credentials.NewChainCredentials([]credentials.Provider{
				&credentials.EnvMinio{},
				&credentials.EnvAWS{},
			}),
			Secure: minioSecure,
		})
		if err != nil {
			return nil, "", fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, loc.bucket, ""), loc.key, nil
	default:
		return blobstore.NewLocalStore(filepath.Dir(loc.key)), filepath.Base(loc.key), nil
	}
}
