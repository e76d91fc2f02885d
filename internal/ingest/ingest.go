// Package ingest orchestrates a load run: it checks preconditions, brings
// the target table's schema up to date, lists the staged Parquet files and
// loads each one end to end on a bounded worker pool.
//
// A file moves through Listed -> Downloaded -> Normalized -> Loaded ->
// Cleaned, or stops at Failed. A failed file is logged and never retried,
// and it does not fail the run.
package ingest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nyctaxi/internal/loader"
	"nyctaxi/internal/metrics"
	"nyctaxi/internal/objectstore"
	"nyctaxi/internal/parquetio"
	"nyctaxi/internal/reconcile"
	"nyctaxi/internal/table"
	"nyctaxi/internal/transformer"
)

// ErrBucketNotFound is returned when the staging bucket does not exist.
var ErrBucketNotFound = errors.New("ingest: bucket not found")

// DefaultWorkers is the pool size used when Runner.Workers is not positive.
const DefaultWorkers = 4

const job = "load"

// State is the lifecycle position of one staged file.
type State int

const (
	Listed State = iota
	Downloaded
	Normalized
	Loaded
	Cleaned
	Failed
)

func (s State) String() string {
	switch s {
	case Listed:
		return "listed"
	case Downloaded:
		return "downloaded"
	case Normalized:
		return "normalized"
	case Loaded:
		return "loaded"
	case Cleaned:
		return "cleaned"
	default:
		return "failed"
	}
}

// Summary counts the outcome of a run.
type Summary struct {
	Listed int
	Loaded int
	Failed int
}

// Runner loads every object in Bucket whose key ends in Suffix.
type Runner struct {
	Store  objectstore.Store
	Bucket string
	Suffix string

	TempDir   string
	Workers   int
	BatchSize int

	Reconciler *reconcile.Reconciler
	Loader     *loader.Loader

	Log *zap.Logger
}

// Run executes one load. It returns an error only for failed preconditions,
// schema reconciliation or listing; per-file failures are counted in the
// Summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	log := r.logger()
	var sum Summary

	ok, err := r.Store.BucketExists(ctx, r.Bucket)
	if err != nil {
		return sum, fmt.Errorf("ingest: bucket exists %s: %w", r.Bucket, err)
	}
	if !ok {
		return sum, fmt.Errorf("%w: %s", ErrBucketNotFound, r.Bucket)
	}
	if err := os.MkdirAll(r.TempDir, 0o755); err != nil {
		return sum, fmt.Errorf("ingest: temp dir: %w", err)
	}

	start := time.Now()
	_, err = r.Reconciler.Run(ctx)
	metrics.RecordStep(job, "reconcile", err, time.Since(start))
	if err != nil {
		return sum, err
	}

	start = time.Now()
	objs, err := r.Store.List(ctx, r.Bucket, r.Suffix)
	metrics.RecordStep(job, "list", err, time.Since(start))
	if err != nil {
		return sum, fmt.Errorf("ingest: list: %w", err)
	}
	sum.Listed = len(objs)
	if len(objs) == 0 {
		log.Info("no staged files", zap.String("bucket", r.Bucket), zap.String("suffix", r.Suffix))
		return sum, nil
	}

	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log.Info("loading staged files", zap.Int("files", len(objs)), zap.Int("workers", workers))

	states := make([]State, len(objs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, obj := range objs {
		g.Go(func() error {
			states[i] = r.process(ctx, obj.Key)
			metrics.RecordFile(job, states[i].String())
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range states {
		if s == Cleaned {
			sum.Loaded++
		} else {
			sum.Failed++
		}
	}
	log.Info("load finished", zap.Int("listed", sum.Listed), zap.Int("loaded", sum.Loaded), zap.Int("failed", sum.Failed))
	return sum, nil
}

// process takes one object through its lifecycle and returns the final state.
func (r *Runner) process(ctx context.Context, key string) State {
	log := r.logger().With(zap.String("object", key))
	start := time.Now()
	state := Listed

	local := localPath(r.TempDir, key)
	defer func() {
		if err := os.Remove(local); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("remove downloaded file", zap.Error(err))
		}
	}()

	fail := func(msg string, err error) State {
		log.Error(msg, zap.Stringer("state", state), zap.Error(err))
		return Failed
	}

	if err := r.Store.Download(ctx, r.Bucket, key, local); err != nil {
		return fail("download failed", err)
	}
	state = Downloaded

	rd, err := parquetio.Open(ctx, local, r.BatchSize)
	if err != nil {
		return fail("open failed", err)
	}
	src := table.Map(rd, func(b *table.Batch) (*table.Batch, error) {
		nb, err := transformer.Normalize(b)
		if err == nil && state == Downloaded {
			state = Normalized
		}
		return nb, err
	})

	ok := r.Loader.LoadFrom(ctx, src, loader.StagingPath(r.TempDir))
	if cerr := rd.Close(); cerr != nil {
		log.Warn("close reader", zap.Error(cerr))
	}
	if !ok {
		log.Error("load failed", zap.Stringer("state", state))
		return Failed
	}
	state = Loaded

	log.Info("file loaded", zap.Stringer("state", state), zap.Duration("elapsed", time.Since(start)))
	return Cleaned
}

// localPath names the download target for key. The random prefix keeps
// keys that flatten to the same name, such as "a/b.parquet" and
// "a_b.parquet", from sharing a file.
func localPath(dir, key string) string {
	id := uuid.New()
	return filepath.Join(dir, hex.EncodeToString(id[:])+"_"+strings.ReplaceAll(key, "/", "_"))
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
