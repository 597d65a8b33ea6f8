package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Observer receives every recorded outcome after it has been stored.
// Observers are called outside the collector lock and must be safe for
// concurrent use.
type Observer interface {
	Observe(o Outcome)
}

// Option configures a Collector.
type Option func(*Collector)

// WithObserver mirrors recorded outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Collector) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// Collector records per-request outcomes in a thread-safe manner.
type Collector struct {
	mu          sync.Mutex
	hist        *hdrhistogram.Histogram
	outcomes    []Outcome
	successes   int64
	failures    int64
	minLatency  time.Duration
	maxLatency  time.Duration
	sumLatency  time.Duration
	statusCodes map[int]int64
	errorKinds  map[ErrorKind]int64
	start       time.Time
	lastDone    time.Time
	observers   []Observer
}

// Summary is the aggregate view of all outcomes recorded so far.
type Summary struct {
	Total          int64         `json:"total" yaml:"total"`
	Successes      int64         `json:"successes" yaml:"successes"`
	Errors         int64         `json:"errors" yaml:"errors"`
	MinLatency     time.Duration `json:"-" yaml:"-"`
	MaxLatency     time.Duration `json:"-" yaml:"-"`
	MeanLatency    time.Duration `json:"-" yaml:"-"`
	P50Latency     time.Duration `json:"-" yaml:"-"`
	P90Latency     time.Duration `json:"-" yaml:"-"`
	P95Latency     time.Duration `json:"-" yaml:"-"`
	P99Latency     time.Duration `json:"-" yaml:"-"`
	Duration       time.Duration `json:"-" yaml:"-"`
	RequestsPerSec float64       `json:"requests_per_sec" yaml:"requests_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms" yaml:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms" yaml:"p90_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms" yaml:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms" yaml:"duration_ms"`

	StatusCodes map[string]int `json:"status_codes,omitempty" yaml:"status_codes,omitempty"`
	ErrorKinds  map[string]int `json:"error_kinds,omitempty" yaml:"error_kinds,omitempty"`

	// Filled in by the driver.
	Workers    int  `json:"workers" yaml:"workers"`
	Incomplete bool `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
	Stragglers int  `json:"stragglers,omitempty" yaml:"stragglers,omitempty"`
}

func NewCollector(opts ...Option) *Collector {
	// Track latencies from 1µs up to 10 minutes with 3 significant figures.
	h := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	c := &Collector{
		hist:        h,
		statusCodes: make(map[int]int64),
		errorKinds:  make(map[ErrorKind]int64),
		start:       time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start marks the beginning of the run for throughput calculations.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Record appends a single outcome.
func (c *Collector) Record(o Outcome) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, o)

	us := o.Latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)
	c.sumLatency += o.Latency

	if c.successes+c.failures == 0 || o.Latency < c.minLatency {
		c.minLatency = o.Latency
	}
	if o.Latency > c.maxLatency {
		c.maxLatency = o.Latency
	}

	if o.StatusCode > 0 {
		c.statusCodes[o.StatusCode]++
	}
	if o.Success() {
		c.successes++
	} else {
		c.failures++
		c.errorKinds[o.ErrorKind]++
	}

	if done := o.Timestamp.Add(o.Latency); done.After(c.lastDone) {
		c.lastDone = done
	}
	observers := c.observers
	c.mu.Unlock()

	for _, obs := range observers {
		obs.Observe(o)
	}
}

// Snapshot returns the aggregate over everything recorded so far. The
// elapsed time is measured from Start to the completion of the latest
// outcome, so repeated calls without new records are identical.
func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	var elapsed time.Duration
	if !c.lastDone.IsZero() && c.lastDone.After(c.start) {
		elapsed = c.lastDone.Sub(c.start)
	}
	return c.summarizeLocked(elapsed)
}

// Stats computes the aggregate using an explicit elapsed time.
func (c *Collector) Stats(elapsed time.Duration) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summarizeLocked(elapsed)
}

// Outcomes returns a copy of the outcome log in record order.
func (c *Collector) Outcomes() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Outcome, len(c.outcomes))
	copy(out, c.outcomes)
	return out
}

// Len returns the number of recorded outcomes.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

func (c *Collector) summarizeLocked(elapsed time.Duration) Summary {
	total := c.successes + c.failures
	stats := Summary{
		Total:      total,
		Successes:  c.successes,
		Errors:     c.failures,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if total > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P95Latency = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	if len(c.statusCodes) > 0 {
		stats.StatusCodes = make(map[string]int, len(c.statusCodes))
		for code, n := range c.statusCodes {
			stats.StatusCodes[strconv.Itoa(code)] = int(n)
		}
	}
	if len(c.errorKinds) > 0 {
		stats.ErrorKinds = make(map[string]int, len(c.errorKinds))
		for kind, n := range c.errorKinds {
			stats.ErrorKinds[string(kind)] = int(n)
		}
	}

	return stats.WithElapsed(elapsed)
}

// WithElapsed returns a copy of s with duration-derived fields recomputed.
func (s Summary) WithElapsed(elapsed time.Duration) Summary {
	s.MinLatencyMs = toMillis(s.MinLatency)
	s.MaxLatencyMs = toMillis(s.MaxLatency)
	s.MeanLatencyMs = toMillis(s.MeanLatency)
	s.P50LatencyMs = toMillis(s.P50Latency)
	s.P90LatencyMs = toMillis(s.P90Latency)
	s.P95LatencyMs = toMillis(s.P95Latency)
	s.P99LatencyMs = toMillis(s.P99Latency)

	s.Duration = elapsed
	s.DurationMs = toMillis(elapsed)
	s.RequestsPerSec = 0
	if elapsed > 0 && s.Total > 0 {
		s.RequestsPerSec = float64(s.Total) / elapsed.Seconds()
	}
	return s
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
