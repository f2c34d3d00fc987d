package fetcher

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/seanchatmangpt/frozen-duckdb/internal/config"
)

// objectStore fetches one object from a remote store. Implemented by
// the minio-backed mirror; faked in tests.
type objectStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// s3Mirror serves engine binaries from an S3-compatible bucket.
type s3Mirror struct {
	client *minio.Client
	bucket string
}

func newS3Mirror(cfg config.Mirror) (*s3Mirror, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create mirror client for %s: %w", cfg.Endpoint, err)
	}
	return &s3Mirror{client: client, bucket: cfg.Bucket}, nil
}

// Get opens the object at key. A stat runs first so a missing object
// fails here with a clear error instead of on the first read.
func (m *s3Mirror) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("stat object: %w", err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return obj, nil
}
