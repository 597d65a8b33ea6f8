// Package clock provides elapsed-time queries and cancellation-aware sleeps.
package clock

import (
	"context"
	"time"
)

// Clock abstracts time so workers and the driver can be exercised deterministically.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	// Sleep blocks for d or until ctx is done. It reports whether the full
	// duration elapsed.
	Sleep(ctx context.Context, d time.Duration) bool
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (realClock) Sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
