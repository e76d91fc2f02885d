// Package objectstore is the staging-bucket abstraction shared by the
// fetcher and the load orchestrator. Backends (MinIO, S3, local directory)
// register a factory at init time; callers obtain a Store through New.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned by Download when the object does not exist.
var ErrNotFound = errors.New("objectstore: object not found")

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// Store is the minimal bucket surface the ETL needs.
type Store interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string) error

	// List returns every object in bucket whose key ends in suffix, sorted
	// by key. An empty suffix matches everything.
	List(ctx context.Context, bucket, suffix string) ([]ObjectInfo, error)

	// Download writes the object to path, replacing any existing file.
	Download(ctx context.Context, bucket, key, path string) error

	// Upload stores the file at path under key with the given user metadata.
	Upload(ctx context.Context, bucket, key, path string, meta map[string]string) error
}

// Config selects and configures a backend.
type Config struct {
	Kind      string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Store using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported object_store.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// EnsureBucket creates bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, s Store, bucket string) (created bool, err error) {
	ok, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("objectstore: bucket exists %s: %w", bucket, err)
	}
	if ok {
		return false, nil
	}
	if err := s.MakeBucket(ctx, bucket); err != nil {
		return false, fmt.Errorf("objectstore: make bucket %s: %w", bucket, err)
	}
	return true, nil
}

// FilterSorted keeps the objects whose key ends in suffix and sorts them by
// key. Backends use it to give List a deterministic order.
func FilterSorted(objs []ObjectInfo, suffix string) []ObjectInfo {
	out := objs[:0]
	for _, o := range objs {
		if strings.HasSuffix(o.Key, suffix) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
