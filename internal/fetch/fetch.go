// Package fetch downloads monthly trip files over HTTP, keeps them under a
// local data directory, concatenates them into one Parquet file and stages
// the result in the object store.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"nyctaxi/internal/datasource/httpds"
	"nyctaxi/internal/metrics"
	"nyctaxi/internal/objectstore"
	"nyctaxi/internal/parquetio"
	"nyctaxi/internal/period"
)

// DigestKey is the user-metadata key carrying an upload's XXH3-64 digest.
const DigestKey = "xxh3"

// job labels every metric recorded by this package.
const job = "fetch"

// Fetcher pulls Periods from BaseURL into DataDir and uploads to Bucket.
type Fetcher struct {
	HTTP   *httpds.Client
	Store  objectstore.Store
	Bucket string

	// BaseURL, FilePrefix and Ext shape the names: the source of period p is
	// "<BaseURL>_<p>.<Ext>" and its local copy "<FilePrefix>_<p>.<Ext>".
	BaseURL    string
	FilePrefix string
	Ext        string

	Periods []period.Period
	DataDir string

	// UploadMonthly also stages each freshly downloaded month.
	UploadMonthly bool

	BatchSize int
	Log       *zap.Logger
}

// Result summarizes one Run.
type Result struct {
	Downloaded []period.Period
	Existing   []period.Period
	Failed     []period.Period

	// Combined is the local path of the concatenated file, empty when there
	// was nothing to combine.
	Combined string
	Rows     int64
}

// SourceURL returns the download URL for p.
func (f *Fetcher) SourceURL(p period.Period) string {
	return fmt.Sprintf("%s_%s.%s", f.BaseURL, p, f.Ext)
}

// LocalPath returns where the file for p is kept.
func (f *Fetcher) LocalPath(p period.Period) string {
	return filepath.Join(f.DataDir, fmt.Sprintf("%s_%s.%s", f.FilePrefix, p, f.Ext))
}

// CombinedName names the concatenated file: "<prefix>_<YYYY>.<ext>" when all
// periods share a year, else "<prefix>_<first>_<last>.<ext>".
func (f *Fetcher) CombinedName() string {
	first, last := f.Periods[0], f.Periods[len(f.Periods)-1]
	if first.Year == last.Year {
		return fmt.Sprintf("%s_%04d.%s", f.FilePrefix, first.Year, f.Ext)
	}
	return fmt.Sprintf("%s_%s_%s.%s", f.FilePrefix, first, last, f.Ext)
}

// Run fetches every period, skipping those already on disk, then combines
// all local files and uploads the result. Per-period download failures and
// upload failures are logged, not returned. Errors are returned only for
// the data directory, the bucket check and the concatenation.
func (f *Fetcher) Run(ctx context.Context) (Result, error) {
	log := f.Log
	if log == nil {
		log = zap.NewNop()
	}
	var res Result
	if len(f.Periods) == 0 {
		return res, fmt.Errorf("fetch: no periods to fetch")
	}

	if err := os.MkdirAll(f.DataDir, 0o755); err != nil {
		return res, fmt.Errorf("fetch: data dir: %w", err)
	}
	created, err := objectstore.EnsureBucket(ctx, f.Store, f.Bucket)
	if err != nil {
		return res, fmt.Errorf("fetch: %w", err)
	}
	if created {
		log.Info("created bucket", zap.String("bucket", f.Bucket))
	}

	var valid []string
	for _, p := range f.Periods {
		path := f.LocalPath(p)
		plog := log.With(zap.Stringer("period", p), zap.String("path", path))

		exists, err := fileExists(path)
		if err != nil {
			return res, fmt.Errorf("fetch: stat %s: %w", path, err)
		}
		if exists {
			plog.Info("already downloaded, skipping")
			metrics.RecordFile(job, "existing")
			res.Existing = append(res.Existing, p)
			valid = append(valid, path)
			continue
		}

		url := f.SourceURL(p)
		start := time.Now()
		n, err := f.HTTP.Download(ctx, url, path)
		metrics.RecordStep(job, "download", err, time.Since(start))
		if err != nil {
			plog.Warn("download failed", zap.String("url", url), zap.Error(err))
			metrics.RecordFile(job, "failed")
			res.Failed = append(res.Failed, p)
			continue
		}
		plog.Info("downloaded", zap.Int64("bytes", n))
		metrics.RecordFile(job, "downloaded")
		res.Downloaded = append(res.Downloaded, p)
		valid = append(valid, path)

		if f.UploadMonthly {
			f.upload(ctx, plog, path)
		}
	}

	if len(valid) == 0 {
		log.Info("no files to combine")
		return res, nil
	}

	combined := filepath.Join(f.DataDir, f.CombinedName())
	start := time.Now()
	rows, err := parquetio.Concat(ctx, combined, valid, f.BatchSize)
	metrics.RecordStep(job, "combine", err, time.Since(start))
	if err != nil {
		return res, fmt.Errorf("fetch: combine: %w", err)
	}
	res.Combined, res.Rows = combined, rows
	metrics.RecordRows(job, "combined", rows)
	log.Info("combined", zap.String("path", combined), zap.Int("files", len(valid)), zap.Int64("rows", rows))

	f.upload(ctx, log, combined)
	return res, nil
}

// upload stages path under its base name. Failures are logged only.
func (f *Fetcher) upload(ctx context.Context, log *zap.Logger, path string) {
	key := filepath.Base(path)
	sum, err := Digest(path)
	if err != nil {
		log.Error("digest failed", zap.String("object", key), zap.Error(err))
		return
	}
	meta := map[string]string{DigestKey: sum}
	start := time.Now()
	err = f.Store.Upload(ctx, f.Bucket, key, path, meta)
	metrics.RecordStep(job, "upload", err, time.Since(start))
	if err != nil {
		log.Error("upload failed", zap.String("object", key), zap.Error(err))
		return
	}
	log.Info("uploaded", zap.String("bucket", f.Bucket), zap.String("object", key), zap.String(DigestKey, sum))
}

// Digest returns the hex XXH3-64 digest of the file at path.
func Digest(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, fh); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func fileExists(path string) (bool, error) {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return st.Mode().IsRegular(), nil
}
