// Package loader bulk-loads normalized trip batches into the warehouse.
//
// Rows are first spooled to a headerless CSV staging file, then streamed to
// the server with COPY ... FROM STDIN in one transaction. The staging file is
// removed on every path, and failures are reported as a false result rather
// than an error: a file that fails to load never stops the run.
package loader

import (
	"context"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nyctaxi/internal/metrics"
	"nyctaxi/internal/schema"
	"nyctaxi/internal/storage"
	"nyctaxi/internal/table"
)

// Loader copies batches into Table.
type Loader struct {
	Repo  storage.Repository
	Table string

	// Columns is the column list every batch must carry, in order. It
	// defaults to the expected trip columns.
	Columns []string

	Log *zap.Logger
}

// StagingPath returns a fresh "temp_data_<hex>.csv" path under dir.
func StagingPath(dir string) string {
	id := uuid.New()
	return filepath.Join(dir, "temp_data_"+hex.EncodeToString(id[:])+".csv")
}

// Load writes b to tmpPath and copies it into the table. See LoadFrom.
func (l *Loader) Load(ctx context.Context, b *table.Batch, tmpPath string) bool {
	return l.LoadFrom(ctx, table.FromBatches(b), tmpPath)
}

// LoadFrom drains src into the CSV staging file at tmpPath, then bulk-copies
// that file into the table and commits. It reports success; every failure is
// logged. tmpPath is deleted before LoadFrom returns, whatever the outcome.
func (l *Loader) LoadFrom(ctx context.Context, src table.Source, tmpPath string) bool {
	log := l.logger().With(zap.String("staging", tmpPath))
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("remove staging file", zap.Error(err))
		}
	}()

	start := time.Now()
	rows, err := l.spool(src, tmpPath)
	if err != nil {
		log.Error("write staging file", zap.Error(err))
		return false
	}

	copyStart := time.Now()
	n, err := l.copy(ctx, tmpPath)
	metrics.RecordStep("load", "copy", err, time.Since(copyStart))
	if err != nil {
		log.Error("copy into table", zap.String("table", l.Table), zap.Error(err))
		return false
	}

	metrics.RecordRows("load", "copied", n)
	log.Info("loaded",
		zap.String("table", l.Table),
		zap.Int64("rows", n),
		zap.Int64("spooled", rows),
		zap.Duration("elapsed", time.Since(start)),
	)
	return true
}

func (l *Loader) spool(src table.Source, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	rows, werr := WriteCSV(f, src, l.columns())
	if err := errors.Join(werr, f.Close()); err != nil {
		return rows, err
	}
	return rows, nil
}

func (l *Loader) copy(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return l.Repo.CopyCSV(ctx, l.Table, l.columns(), f)
}

func (l *Loader) columns() []string {
	if len(l.Columns) == 0 {
		return schema.ExpectedNames()
	}
	return l.Columns
}

func (l *Loader) logger() *zap.Logger {
	if l.Log == nil {
		return zap.NewNop()
	}
	return l.Log
}

// WriteCSV writes every row of src to w as headerless CSV and returns the
// row count. Each batch must carry exactly cols, in order.
func WriteCSV(w io.Writer, src table.Source, cols []string) (int64, error) {
	cw := csv.NewWriter(w)
	record := make([]string, len(cols))
	var rows int64
	for {
		b, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, err
		}
		if !slices.Equal(b.Columns, cols) {
			return rows, fmt.Errorf("loader: batch columns %v do not match %v", b.Columns, cols)
		}
		for _, row := range b.Rows {
			for i, v := range row {
				s, err := FormatValue(v)
				if err != nil {
					return rows, fmt.Errorf("loader: row %d column %s: %w", rows, cols[i], err)
				}
				record[i] = s
			}
			if err := cw.Write(record); err != nil {
				return rows, err
			}
			rows++
		}
	}
	cw.Flush()
	return rows, cw.Error()
}

// FormatValue renders one cell for Postgres CSV input. nil and NaN become an
// empty unquoted field, which COPY reads as NULL.
func FormatValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		switch {
		case math.IsNaN(x):
			return "", nil
		case math.IsInf(x, 1):
			return "Infinity", nil
		case math.IsInf(x, -1):
			return "-Infinity", nil
		}
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
