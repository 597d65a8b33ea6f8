package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/vudrive/internal/metrics"
)

// abortSettle bounds how long the driver waits for workers to record their
// cancelled requests after the grace period expired.
const abortSettle = 100 * time.Millisecond

// Driver coordinates one run: it spawns the virtual users, enforces the
// deadline, drains the workers and produces the run summary.
type Driver struct {
	opt     Options
	state   atomic.Int32
	started atomic.Bool
	spawned atomic.Int64
	active  atomic.Int64

	mu            sync.Mutex
	cancelStop    context.CancelFunc
	stopRequested bool
}

func New(opt Options) *Driver {
	opt.normalize()
	return &Driver{opt: opt}
}

// State returns the current lifecycle stage.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Spawned returns the number of workers started by Run.
func (d *Driver) Spawned() int {
	return int(d.spawned.Load())
}

// Stop requests a drain. It is safe to call before, during or after Run.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopRequested = true
	if d.cancelStop != nil {
		d.cancelStop()
	}
}

// Run executes the load test and blocks until the driver reaches
// StateStopped. Only a *ConfigError or ErrAlreadyRun is returned; request
// failures are reported through the summary.
func (d *Driver) Run(ctx context.Context) (metrics.Summary, error) {
	if !d.started.CompareAndSwap(false, true) {
		return metrics.Summary{}, ErrAlreadyRun
	}
	if err := d.opt.validate(); err != nil {
		d.started.Store(false)
		return metrics.Summary{}, err
	}

	log := d.opt.Logger
	if s, ok := d.opt.Collector.(interface{ Start() }); ok {
		s.Start()
	}
	start := d.opt.Clock.Now()

	stop, cancelStop := context.WithCancel(ctx)
	defer cancelStop()
	// abort outlives the parent so in-flight requests can finish during the drain.
	abort, cancelAbort := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelAbort()

	d.mu.Lock()
	d.cancelStop = cancelStop
	if d.stopRequested {
		cancelStop()
	}
	d.mu.Unlock()

	var deadline <-chan time.Time
	if d.opt.Duration > 0 {
		timer := time.NewTimer(d.opt.Duration)
		defer timer.Stop()
		deadline = timer.C
	} else {
		cancelStop()
	}

	d.transition(StateIdle, StateRunning)
	log.Info("run started",
		zap.Int("concurrency", d.opt.Concurrency),
		zap.Duration("duration", d.opt.Duration),
		zap.Duration("think_time", d.opt.ThinkTime),
		zap.String("think_time_model", string(d.opt.ThinkTimeModel)),
		zap.Int("rate", d.opt.RatePerSecond),
	)

	limiter := d.opt.LimiterFactory(d.opt.RatePerSecond)
	gate := newRecordGate(d.opt.Collector)
	var wg sync.WaitGroup
	wg.Add(d.opt.Concurrency)
	for i := 0; i < d.opt.Concurrency; i++ {
		w := newWorker(i, d.opt, gate, limiter)
		d.spawned.Add(1)
		d.active.Add(1)
		go func() {
			defer wg.Done()
			defer d.active.Add(-1)
			if d.opt.Tracker != nil {
				d.opt.Tracker.WorkerStarted(w.ID())
				defer d.opt.Tracker.WorkerStopped(w.ID())
			}
			w.Run(stop, abort)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	reason := "deadline"
	select {
	case <-deadline:
	case <-stop.Done():
		reason = d.stopReason(ctx)
	case <-done:
		reason = "workers exited"
	}
	cancelStop()
	d.transition(StateRunning, StateDraining)
	log.Debug("draining workers", zap.String("reason", reason), zap.Duration("grace_period", d.opt.GracePeriod))

	incomplete, stragglers := false, 0
	select {
	case <-done:
	default:
		grace := time.NewTimer(d.opt.GracePeriod)
		defer grace.Stop()
		select {
		case <-done:
		case <-grace.C:
			incomplete = true
			stragglers = int(d.active.Load())
			log.Warn("shutdown timeout",
				zap.Error(ErrShutdownTimeout),
				zap.Int("stragglers", stragglers),
				zap.Duration("grace_period", d.opt.GracePeriod),
			)
			cancelAbort()
			settle := time.NewTimer(abortSettle)
			defer settle.Stop()
			select {
			case <-done:
			case <-settle.C:
			}
		}
	}
	gate.seal()

	elapsed := d.opt.Clock.Since(start)
	summary := d.opt.Collector.Snapshot().WithElapsed(elapsed)
	summary.Workers = d.Spawned()
	summary.Incomplete = incomplete
	summary.Stragglers = stragglers

	d.transition(StateDraining, StateStopped)
	log.Info("run stopped",
		zap.String("reason", reason),
		zap.Int64("total", summary.Total),
		zap.Int64("errors", summary.Errors),
		zap.Duration("elapsed", elapsed),
		zap.Bool("incomplete", incomplete),
	)
	return summary, nil
}

func (d *Driver) stopReason(parent context.Context) string {
	if d.opt.Duration <= 0 {
		return "deadline"
	}
	if parent.Err() != nil {
		return "interrupted"
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopRequested {
		return "stopped"
	}
	return "deadline"
}

func (d *Driver) transition(from, to State) {
	d.state.Store(int32(to))
	d.opt.Logger.Debug("state change", zap.Stringer("from", from), zap.Stringer("to", to))
	if d.opt.OnStateChange != nil {
		d.opt.OnStateChange(from, to)
	}
}
