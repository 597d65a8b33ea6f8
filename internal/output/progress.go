package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/vudrive/internal/metrics"
)

// StatsSource provides aggregate statistics for an explicit elapsed time.
type StatsSource interface {
	Stats(elapsed time.Duration) metrics.Summary
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	source   StatsSource
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(source StatsSource, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		source:   source,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return
	}
	p.start = time.Now()
	go p.run()
}

// Stop halts progress updates. It is a no-op if the reporter never started.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		return
	}
	p.ticker.Stop()
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, progressLine(p.source.Stats(time.Since(p.start))))
		case <-p.done:
			return
		}
	}
}

func progressLine(s metrics.Summary) string {
	return fmt.Sprintf("\rRequests: %d | Successes: %d | Errors: %d | RPS: %.1f | P95: %.1fms",
		s.Total, s.Successes, s.Errors, s.RequestsPerSec, s.P95LatencyMs)
}
