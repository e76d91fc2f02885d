// Package s3 implements objectstore.Store on the AWS SDK v2 S3 client with
// path-style addressing, so it works against AWS and S3-compatible servers.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"nyctaxi/internal/objectstore"
)

// Kind is the objectstore kind registered by this package.
const Kind = "s3"

// Store wraps an *s3.Client.
type Store struct {
	cli    *s3.Client
	region string
}

var _ objectstore.Store = (*Store)(nil)

// New builds a client. An empty Endpoint targets AWS itself; otherwise the
// scheme follows UseSSL unless Endpoint already carries one.
func New(cfg objectstore.Config) *Store {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: true,
	}
	if cfg.AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	if ep := endpointURL(cfg.Endpoint, cfg.UseSSL); ep != "" {
		opts.BaseEndpoint = aws.String(ep)
	}
	return &Store{cli: s3.New(opts), region: cfg.Region}
}

func endpointURL(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := s.cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3: head bucket %s: %w", bucket, err)
}

func (s *Store) MakeBucket(ctx context.Context, bucket string) error {
	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if s.region != "" && s.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.cli.CreateBucket(ctx, in); err != nil {
		return fmt.Errorf("s3: create bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, bucket, suffix string) ([]objectstore.ObjectInfo, error) {
	var out []objectstore.ObjectInfo
	p := s3.NewListObjectsV2Paginator(s.cli, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list %s: %w", bucket, err)
		}
		for _, o := range page.Contents {
			out = append(out, objectstore.ObjectInfo{Key: aws.ToString(o.Key), Size: aws.ToInt64(o.Size)})
		}
	}
	return objectstore.FilterSorted(out, suffix), nil
}

func (s *Store) Download(ctx context.Context, bucket, key, path string) error {
	resp, err := s.cli.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) || isNotFound(err) {
			return fmt.Errorf("%w: %s/%s", objectstore.ErrNotFound, bucket, key)
		}
		return fmt.Errorf("s3: get %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("s3: create %s: %w", path, err)
	}
	_, copyErr := io.Copy(f, resp.Body)
	if err := errors.Join(copyErr, f.Close()); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("s3: write %s: %w", path, err)
	}
	return nil
}

func (s *Store) Upload(ctx context.Context, bucket, key, path string, meta map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("s3: open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("s3: stat %s: %w", path, err)
	}
	_, err = s.cli.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(st.Size()),
		ContentType:   aws.String("application/vnd.apache.parquet"),
		Metadata:      meta,
	})
	if err != nil {
		return fmt.Errorf("s3: put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// isNotFound matches both the typed NotFound and bare 404 API errors that
// HeadBucket/HeadObject return without a body.
func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket", "NoSuchKey":
			return true
		}
	}
	return false
}

func init() {
	objectstore.Register(Kind, func(_ context.Context, cfg objectstore.Config) (objectstore.Store, error) {
		return New(cfg), nil
	})
}
