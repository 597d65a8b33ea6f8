// Package metrics records request outcomes and aggregates them into run summaries.
//
// # Collector
//
// The central [Collector] type accepts one [Outcome] per request attempt from
// every virtual user:
//
//	collector := metrics.NewCollector()
//	collector.Start() // Mark run start for accurate RPS calculation
//
//	collector.Record(metrics.Outcome{
//		Timestamp:  start,
//		Latency:    time.Since(start),
//		StatusCode: 200,
//	})
//
//	summary := collector.Snapshot()
//
// # Summary
//
// The [Summary] type provides:
//   - Request counts (total, successes, errors); total always equals successes + errors
//   - Latency percentiles (P50, P90, P95, P99) from an HDR histogram
//   - Requests per second
//   - Counts per HTTP status code and per [ErrorKind]
//
// [Collector.Snapshot] derives its elapsed time from recorded data only, so two
// snapshots with no intervening Record calls are identical. [Collector.Stats]
// takes an explicit elapsed time and is meant for live progress output.
//
// # Thread Safety
//
// Record serializes writers with a mutex; no outcome is lost or duplicated
// under concurrent access. Observers registered with [WithObserver] run after
// the lock is released.
//
// # Prometheus
//
// [Exporter] implements [Observer] and exposes request counters, a latency
// histogram and an active virtual user gauge on its own registry.
package metrics
