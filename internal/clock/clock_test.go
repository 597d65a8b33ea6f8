package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/torosent/vudrive/internal/clock"
)

func TestSleepCompletes(t *testing.T) {
	c := clock.Real()
	start := c.Now()
	if !c.Sleep(context.Background(), 10*time.Millisecond) {
		t.Fatal("Sleep() = false, want true for uncancelled context")
	}
	if elapsed := c.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("Sleep returned after %s, want >= 10ms", elapsed)
	}
}

func TestSleepInterruptedByCancel(t *testing.T) {
	c := clock.Real()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if c.Sleep(ctx, 5*time.Second) {
		t.Fatal("Sleep() = true, want false after cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancelled sleep took %s", elapsed)
	}
}

func TestSleepAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if clock.Real().Sleep(ctx, 0) {
		t.Fatal("Sleep() on a done context should report false")
	}
}

func TestSleepZeroDuration(t *testing.T) {
	if !clock.Real().Sleep(context.Background(), 0) {
		t.Fatal("Sleep(0) should return true immediately")
	}
}
