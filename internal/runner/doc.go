// Package runner provides the closed-loop execution engine for vudrive.
//
// A [Driver] spawns one [Worker] per virtual user. Each worker repeatedly
// issues a single request, records exactly one [metrics.Outcome], sleeps for
// the think time and rechecks the stop signal:
//
//	d := runner.New(runner.Options{
//		Concurrency: 10,
//		Duration:    time.Minute,
//		ThinkTime:   time.Second,
//		Requester:   myRequester,
//		Collector:   metrics.NewCollector(),
//	})
//	summary, err := d.Run(ctx)
//
// # Lifecycle
//
// The driver moves through [StateIdle], [StateRunning], [StateDraining] and
// [StateStopped]. Invalid options return a [*ConfigError] before any worker
// is spawned. The run drains when the deadline expires, the parent context is
// cancelled or [Driver.Stop] is called. A Driver runs once; a second call to
// Run returns [ErrAlreadyRun].
//
// # Cancellation
//
// Workers receive two contexts. The stop context ends the loop and
// interrupts think time. The abort context is passed to the requester and is
// cancelled only when the drain grace period expires, so in-flight requests
// finish and are recorded. Workers still running at that point are counted
// as stragglers and the summary is marked incomplete.
//
// # Pacing
//
// Think time is either constant or drawn from an exponential distribution
// with the configured mean ([ThinkTimeExponential]). An optional global
// token bucket caps the aggregate request rate across all workers.
//
// # Success Policy
//
// [StatusPolicy] decides which HTTP status codes count as successes.
// Responses outside the policy are recorded with an [*HTTPError].
package runner
