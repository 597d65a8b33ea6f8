package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/torosent/vudrive/internal/metrics"
)

// syncBuffer guards a bytes.Buffer written by the reporter goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgressReporterStopWithoutStart(t *testing.T) {
	reporter := NewProgressReporter(metrics.NewCollector(), 100*time.Millisecond, &bytes.Buffer{})
	if reporter == nil {
		t.Fatal("Expected non-nil reporter")
	}
	reporter.Stop()
}

func TestProgressReporterFormatting(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()
	collector.Record(metrics.Outcome{Timestamp: time.Now(), Latency: 50 * time.Millisecond, StatusCode: 200})
	collector.Record(metrics.Outcome{Timestamp: time.Now(), Latency: 5 * time.Millisecond, ErrorKind: metrics.ErrorKindTimeout})

	var buf syncBuffer
	reporter := NewProgressReporter(collector, 20*time.Millisecond, &buf)
	reporter.Start()
	reporter.Start()

	time.Sleep(100 * time.Millisecond)
	reporter.Stop()
	reporter.Stop()

	output := buf.String()
	if !strings.Contains(output, "Requests: 2") {
		t.Errorf("Expected 'Requests: 2' in progress output, got %q", output)
	}
	if !strings.Contains(output, "Errors: 1") {
		t.Errorf("Expected 'Errors: 1' in progress output, got %q", output)
	}
}

func TestProgressLine(t *testing.T) {
	line := progressLine(metrics.Summary{Total: 10, Successes: 9, Errors: 1, RequestsPerSec: 4.25, P95LatencyMs: 12.34})
	want := "\rRequests: 10 | Successes: 9 | Errors: 1 | RPS: 4.2 | P95: 12.3ms"
	if line != want {
		t.Fatalf("progressLine() = %q, want %q", line, want)
	}
}
