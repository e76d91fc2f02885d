// Package metrics records run-level counters and timings for the fetch and
// load commands behind a small pluggable Backend.
//
// The default backend is a no-op, so every Record call is safe whether or
// not a concrete backend (Pushgateway, DogStatsD) was installed at startup.
// Concrete backends live in subpackages and are selected by the CLI.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal           = "nyctaxi_step_total"
	StepDurationSeconds = "nyctaxi_step_duration_seconds"
	FilesTotal          = "nyctaxi_files_total"
	RowsTotal           = "nyctaxi_rows_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. It must be called before any
// worker starts recording. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline step ("download",
// "combine", "upload", "reconcile", "list") and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status(err),
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordFile counts a file reaching a terminal state ("loaded", "failed",
// "downloaded", "existing", ...).
func RecordFile(job, state string) {
	backend.IncCounter(FilesTotal, 1, Labels{
		"job":   job,
		"state": state,
	})
}

// RecordRows adds delta rows of the given kind ("combined", "copied").
// Non-positive deltas are ignored.
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
