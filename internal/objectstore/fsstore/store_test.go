package fsstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nyctaxi/internal/objectstore"
)

func TestStoreLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	s, err := objectstore.New(ctx, objectstore.Config{Kind: Kind, Endpoint: root})
	if err != nil {
		t.Fatalf("objectstore.New error = %v", err)
	}

	ok, err := s.BucketExists(ctx, "parquet-bucket")
	if err != nil || ok {
		t.Fatalf("BucketExists before create = %v, %v; want false", ok, err)
	}
	created, err := objectstore.EnsureBucket(ctx, s, "parquet-bucket")
	if err != nil || !created {
		t.Fatalf("EnsureBucket = %v, %v; want created", created, err)
	}
	created, err = objectstore.EnsureBucket(ctx, s, "parquet-bucket")
	if err != nil || created {
		t.Fatalf("second EnsureBucket = %v, %v; want existing", created, err)
	}

	src := filepath.Join(t.TempDir(), "a.parquet")
	if err := os.WriteFile(src, []byte("PAR1"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"b.parquet", "a.parquet", "notes.txt"} {
		if err := s.Upload(ctx, "parquet-bucket", key, src, map[string]string{"xxh3": "abc"}); err != nil {
			t.Fatalf("Upload(%s) error = %v", key, err)
		}
	}

	objs, err := s.List(ctx, "parquet-bucket", ".parquet")
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if len(objs) != 2 || objs[0].Key != "a.parquet" || objs[1].Key != "b.parquet" || objs[0].Size != 4 {
		t.Fatalf("List = %+v, want sorted a.parquet, b.parquet", objs)
	}

	meta, err := s.(*Store).Metadata("parquet-bucket", "a.parquet")
	if err != nil || meta["xxh3"] != "abc" {
		t.Fatalf("Metadata = %v, %v", meta, err)
	}

	dst := filepath.Join(t.TempDir(), "out.parquet")
	if err := s.Download(ctx, "parquet-bucket", "b.parquet", dst); err != nil {
		t.Fatalf("Download error = %v", err)
	}
	if b, _ := os.ReadFile(dst); string(b) != "PAR1" {
		t.Fatalf("downloaded content = %q", b)
	}

	err = s.Download(ctx, "parquet-bucket", "missing.parquet", dst)
	if !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("Download(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUploadWithoutBucketFails(t *testing.T) {
	t.Parallel()

	s, _ := New(t.TempDir())
	src := filepath.Join(t.TempDir(), "a.parquet")
	_ = os.WriteFile(src, []byte("x"), 0o644)
	if err := s.Upload(context.Background(), "nope", "a.parquet", src, nil); err == nil {
		t.Fatalf("Upload into missing bucket: error = nil")
	}
}

func TestInvalidNames(t *testing.T) {
	t.Parallel()

	s, _ := New(t.TempDir())
	if _, err := s.BucketExists(context.Background(), "../etc"); err == nil {
		t.Fatalf("BucketExists(../etc) error = nil")
	}
	if _, err := New(" "); err == nil {
		t.Fatalf("New(empty root) error = nil")
	}
}
