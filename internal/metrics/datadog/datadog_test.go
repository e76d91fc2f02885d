package datadog

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"nyctaxi/internal/metrics"
)

func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("NewBackend without Addr: error = nil")
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v, want nil", got)
	}
	got := labelsToTags(metrics.Labels{"step": "download", "job": "fetch"})
	want := []string{"job:fetch", "step:download"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("labelsToTags = %v, want %v", got, want)
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.FilesTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush error = %v", err)
	}
}

// TestSendsToAgent points the backend at a local UDP listener standing in
// for the DogStatsD agent.
func TestSendsToAgent(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen unavailable: %v", err)
	}
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), Namespace: "test."})
	if err != nil {
		t.Fatalf("NewBackend error = %v", err)
	}
	b.IncCounter(metrics.FilesTotal, 2, metrics.Labels{"state": "loaded"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush error = %v", err)
	}

	// Client telemetry may arrive first; scan until the counter shows up.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 65536)
	var seen []string
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			t.Fatalf("counter not received: %v; got %q", err, seen)
		}
		for _, line := range strings.Split(string(buf[:n]), "\n") {
			if strings.HasPrefix(line, "test."+metrics.FilesTotal+":2|c") {
				if !strings.Contains(line, "state:loaded") {
					t.Fatalf("datagram %q lacks state tag", line)
				}
				return
			}
			seen = append(seen, line)
		}
	}
}
