// Package minio implements objectstore.Store on the MinIO Go client. It is
// the default backend and talks to any S3-compatible endpoint.
package minio

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"nyctaxi/internal/objectstore"
)

// Kind is the objectstore kind registered by this package.
const Kind = "minio"

// ParquetContentType is sent with every upload.
const ParquetContentType = "application/vnd.apache.parquet"

// Store wraps a *minio.Client.
type Store struct {
	cli    *minio.Client
	region string
}

var _ objectstore.Store = (*Store)(nil)

// New builds a client for cfg.Endpoint ("host:port", no scheme).
func New(cfg objectstore.Config) (*Store, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: client %s: %w", cfg.Endpoint, err)
	}
	return &Store{cli: cli, region: cfg.Region}, nil
}

func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.cli.BucketExists(ctx, bucket)
}

func (s *Store) MakeBucket(ctx context.Context, bucket string) error {
	return s.cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region})
}

func (s *Store) List(ctx context.Context, bucket, suffix string) ([]objectstore.ObjectInfo, error) {
	// Cancelling stops the listing goroutine if we return early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []objectstore.ObjectInfo
	for obj := range s.cli.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio: list %s: %w", bucket, obj.Err)
		}
		out = append(out, objectstore.ObjectInfo{Key: obj.Key, Size: obj.Size})
	}
	return objectstore.FilterSorted(out, suffix), nil
}

func (s *Store) Download(ctx context.Context, bucket, key, path string) error {
	if err := s.cli.FGetObject(ctx, bucket, key, path, minio.GetObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%w: %s/%s", objectstore.ErrNotFound, bucket, key)
		}
		return fmt.Errorf("minio: get %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *Store) Upload(ctx context.Context, bucket, key, path string, meta map[string]string) error {
	_, err := s.cli.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{
		ContentType:  ParquetContentType,
		UserMetadata: meta,
	})
	if err != nil {
		return fmt.Errorf("minio: put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func init() {
	objectstore.Register(Kind, func(_ context.Context, cfg objectstore.Config) (objectstore.Store, error) {
		return New(cfg)
	})
}
