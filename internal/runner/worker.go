package runner

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/torosent/vudrive/internal/clock"
	"github.com/torosent/vudrive/internal/metrics"
)

// Worker is a single virtual user.
type Worker struct {
	id        int
	requester Requester
	record    func(metrics.Outcome) bool
	failures  FailureLogger
	clock     clock.Clock
	limiter   *rate.Limiter
	policy    StatusPolicy
	think     thinkTimer
}

func newWorker(id int, opt Options, gate *recordGate, limiter *rate.Limiter) *Worker {
	if gate == nil {
		gate = newRecordGate(opt.Collector)
	}
	return &Worker{
		id:        id,
		requester: opt.Requester,
		record:    gate.record,
		failures:  opt.FailureLogger,
		clock:     opt.Clock,
		limiter:   limiter,
		policy:    opt.StatusPolicy,
		think:     newThinkTimer(opt, id),
	}
}

// ID returns the worker's index within its run.
func (w *Worker) ID() int { return w.id }

// Run loops until stop is cancelled. Requests are issued with abort so an
// in-flight request survives stop and is only cut short once abort fires.
func (w *Worker) Run(stop, abort context.Context) {
	for stop.Err() == nil {
		if w.limiter != nil {
			if err := w.limiter.Wait(stop); err != nil {
				return
			}
		}
		w.iterate(abort)
		if !w.clock.Sleep(stop, w.think.Next()) {
			return
		}
	}
}

func (w *Worker) iterate(ctx context.Context) {
	start := w.clock.Now()
	code, err := w.requester.Do(ctx)
	latency := w.clock.Since(start)

	o := metrics.Outcome{
		Worker:     w.id,
		Timestamp:  start,
		Latency:    latency,
		StatusCode: code,
	}
	switch {
	case err != nil:
		o.ErrorKind = metrics.ClassifyError(err)
		o.Err = err
	case !w.policy.Accepts(code):
		o.ErrorKind = metrics.ErrorKindHTTPStatus
		o.Err = &HTTPError{StatusCode: code}
	}

	if !w.record(o) {
		return
	}
	if !o.Success() && w.failures != nil {
		w.failures.LogFailure(o)
	}
}
