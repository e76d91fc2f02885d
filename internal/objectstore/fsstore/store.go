// Package fsstore implements objectstore.Store on a local directory: each
// bucket is a subdirectory of the root and each object a file. User metadata
// is kept next to the object in a "<key>.meta.json" sidecar. It serves
// offline runs and tests.
package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"nyctaxi/internal/objectstore"
)

// Kind is the objectstore kind registered by this package.
const Kind = "file"

const metaSuffix = ".meta.json"

// Store keeps buckets under Root.
type Store struct {
	Root string
}

var _ objectstore.Store = (*Store)(nil)

// New returns a Store rooted at root.
func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("fsstore: root directory must not be empty")
	}
	return &Store{Root: root}, nil
}

func (s *Store) bucketDir(bucket string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("fsstore: invalid bucket name %q", bucket)
	}
	return filepath.Join(s.Root, bucket), nil
}

func (s *Store) objectPath(bucket, key string) (string, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("fsstore: invalid object key %q", key)
	}
	return filepath.Join(dir, filepath.FromSlash(clean)), nil
}

func (s *Store) BucketExists(_ context.Context, bucket string) (bool, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return st.IsDir(), nil
}

func (s *Store) MakeBucket(_ context.Context, bucket string) error {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) List(ctx context.Context, bucket, suffix string) ([]objectstore.ObjectInfo, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	var out []objectstore.ObjectInfo
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, objectstore.ObjectInfo{Key: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fsstore: list %s: %w", bucket, err)
	}
	return objectstore.FilterSorted(out, suffix), nil
}

func (s *Store) Download(_ context.Context, bucket, key, path string) error {
	src, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := copyFile(src, path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", objectstore.ErrNotFound, bucket, key)
		}
		return fmt.Errorf("fsstore: get %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *Store) Upload(ctx context.Context, bucket, key, path string, meta map[string]string) error {
	dst, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if ok, err := s.BucketExists(ctx, bucket); err != nil || !ok {
		return fmt.Errorf("fsstore: put %s/%s: bucket does not exist", bucket, key)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := copyFile(path, dst); err != nil {
		return fmt.Errorf("fsstore: put %s/%s: %w", bucket, key, err)
	}
	if len(meta) == 0 {
		_ = os.Remove(dst + metaSuffix)
		return nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(dst+metaSuffix, b, 0o644)
}

// Metadata returns the user metadata stored with an object.
func (s *Store) Metadata(bucket, key string) (map[string]string, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p + metaSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	meta := map[string]string{}
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("fsstore: metadata %s/%s: %w", bucket, key, err)
	}
	return meta, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, in)
	if err := errors.Join(copyErr, out.Close()); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

func init() {
	objectstore.Register(Kind, func(_ context.Context, cfg objectstore.Config) (objectstore.Store, error) {
		return New(cfg.Endpoint)
	})
}
