package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"nyctaxi/internal/metrics"
)

func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	m := &dto.Metric{}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	s := m.GetSummary()
	if s == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	return s.GetSampleCount(), s.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL", jobName: "load", wantErr: true},
		{name: "default job name", gatewayURL: "http://pushgateway:9091", wantJobName: "nyctaxi"},
		{name: "explicit job name", jobName: "nyctaxi_load", gatewayURL: "http://pushgateway:9091", wantJobName: "nyctaxi_load"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend error = %v", err)
			}
			if b.jobName != tt.wantJobName || b.gatewayURL != tt.gatewayURL {
				t.Fatalf("backend = {%q, %q}", b.jobName, b.gatewayURL)
			}
		})
	}
}

func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("load", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend error = %v", err)
	}

	b.IncCounter(metrics.StepTotal, 2, metrics.Labels{"job": "load", "step": "reconcile", "status": "success"})
	b.IncCounter(metrics.FilesTotal, 1, metrics.Labels{"state": "loaded"})
	b.IncCounter(metrics.FilesTotal, 1, metrics.Labels{"state": "loaded"})
	b.IncCounter(metrics.RowsTotal, 1500, metrics.Labels{"kind": "copied"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"state": "loaded"})

	if got := readCounterValue(t, b.stepCounter.WithLabelValues("reconcile", "success")); got != 2 {
		t.Fatalf("step counter = %v, want 2", got)
	}
	if got := readCounterValue(t, b.fileCounter.WithLabelValues("loaded")); got != 2 {
		t.Fatalf("file counter = %v, want 2", got)
	}
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("copied")); got != 1500 {
		t.Fatalf("row counter = %v, want 1500", got)
	}
	if got := readCounterValue(t, b.fileCounter.WithLabelValues("failed")); got != 0 {
		t.Fatalf("untouched file counter = %v, want 0", got)
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.FilesTotal, 1, metrics.Labels{"state": "loaded"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "copied"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, nil)
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("fetch", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend error = %v", err)
	}
	lbls := metrics.Labels{"step": "download", "status": "success"}
	b.ObserveHistogram(metrics.StepDurationSeconds, 1.5, lbls)
	b.ObserveHistogram("other_metric", 2.0, lbls)

	count, sum := readSummaryCountSum(t, b.stepDuration, "download", "success")
	if count != 1 || sum != 1.5 {
		t.Fatalf("summary = (%d, %v), want (1, 1.5)", count, sum)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan pushed, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushed{method: r.Method, path: r.URL.Path, body: string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend("nyctaxi_load", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend error = %v", err)
	}
	b.IncCounter(metrics.FilesTotal, 1, metrics.Labels{"state": "loaded"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush error = %v", err)
	}

	var got pushed
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush sent no request to the Pushgateway")
	}
	if got.method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", got.method)
	}
	if !strings.Contains(got.path, "/job/nyctaxi_load") {
		t.Fatalf("path = %q, want job grouping key", got.path)
	}
	if got.body == "" {
		t.Fatalf("push body is empty")
	}
}

func TestFlushGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend("load", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend error = %v", err)
	}
	if err := b.Flush(); err == nil {
		t.Fatalf("Flush against failing gateway: error = nil")
	}
}
