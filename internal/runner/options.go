package runner

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/torosent/vudrive/internal/clock"
	"github.com/torosent/vudrive/internal/metrics"
)

// DefaultGracePeriod bounds the drain phase when Options.GracePeriod is zero.
const DefaultGracePeriod = 5 * time.Second

// Requester abstracts issuing a single request. It returns the HTTP status
// code of the response, or an error when no response was received.
type Requester interface {
	Do(ctx context.Context) (int, error)
}

// Collector accumulates outcomes and produces the run summary.
type Collector interface {
	Record(o metrics.Outcome)
	Snapshot() metrics.Summary
}

// FailureLogger logs failed requests.
type FailureLogger interface {
	LogFailure(o metrics.Outcome)
}

// WorkerTracker is notified when virtual users start and exit.
type WorkerTracker interface {
	WorkerStarted(id int)
	WorkerStopped(id int)
}

// Options configure the Driver.
type Options struct {
	Concurrency      int            // number of virtual users
	Duration         time.Duration  // hard deadline measured from run start (0 drains immediately)
	ThinkTime        time.Duration  // pause between a virtual user's requests
	ThinkTimeModel   ThinkTimeModel // constant or exponential think time
	RandomSeed       int64          // seed for exponential think time (0 means time-based)
	GracePeriod      time.Duration  // max drain wait (0 means default, negative means abort immediately)
	RatePerSecond    int            // global requests per second cap (0 means unlimited)
	StatusPolicy     StatusPolicy   // which status codes count as success
	Requester        Requester      // request executor (required)
	Collector        Collector      // outcome sink (required)
	Clock            clock.Clock
	Logger           *zap.Logger
	FailureLogger    FailureLogger
	Tracker          WorkerTracker
	OnStateChange    func(from, to State)
	LimiterFactory   func(rps int) *rate.Limiter // optional injection for tests
	ThinkTimeSampler func() float64              // optional unit-mean sampler for tests
}

func (o *Options) normalize() {
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.ThinkTimeModel == "" {
		o.ThinkTimeModel = ThinkTimeConstant
	}
	if o.StatusPolicy == "" {
		o.StatusPolicy = StatusPolicy2xx
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	switch {
	case o.GracePeriod == 0:
		o.GracePeriod = DefaultGracePeriod
	case o.GracePeriod < 0:
		o.GracePeriod = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return nil
			}
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func (o Options) validate() error {
	var issues []string
	if o.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if o.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if o.ThinkTime < 0 {
		issues = append(issues, "think time must be >= 0")
	}
	if o.RatePerSecond < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if !o.ThinkTimeModel.valid() {
		issues = append(issues, "unsupported think time model "+string(o.ThinkTimeModel))
	}
	if !o.StatusPolicy.valid() {
		issues = append(issues, "unsupported status policy "+string(o.StatusPolicy))
	}
	if o.Requester == nil {
		issues = append(issues, "requester is required")
	}
	if o.Collector == nil {
		issues = append(issues, "collector is required")
	}
	if len(issues) > 0 {
		return &ConfigError{Issues: issues}
	}
	return nil
}
