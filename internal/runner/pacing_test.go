package runner

import (
	"math"
	"testing"
	"time"
)

func TestConstantThinkTime(t *testing.T) {
	timer := newThinkTimer(Options{ThinkTime: time.Second, ThinkTimeModel: ThinkTimeConstant}, 0)
	for i := 0; i < 3; i++ {
		if got := timer.Next(); got != time.Second {
			t.Fatalf("Next() = %v, want 1s", got)
		}
	}
}

func TestExponentialThinkTimeUsesSampler(t *testing.T) {
	samples := []float64{0.5, 2, 1}
	i := 0
	timer := newThinkTimer(Options{
		ThinkTime:      100 * time.Millisecond,
		ThinkTimeModel: ThinkTimeExponential,
		ThinkTimeSampler: func() float64 {
			v := samples[i%len(samples)]
			i++
			return v
		},
	}, 0)

	want := []time.Duration{50 * time.Millisecond, 200 * time.Millisecond, 100 * time.Millisecond}
	for _, w := range want {
		if got := timer.Next(); got != w {
			t.Fatalf("Next() = %v, want %v", got, w)
		}
	}
}

func TestExponentialThinkTimeMean(t *testing.T) {
	mean := 10 * time.Millisecond
	timer := newThinkTimer(Options{ThinkTime: mean, ThinkTimeModel: ThinkTimeExponential, RandomSeed: 42}, 3)

	const n = 20000
	var sum time.Duration
	for i := 0; i < n; i++ {
		d := timer.Next()
		if d < 0 {
			t.Fatalf("negative think time %v", d)
		}
		sum += d
	}
	got := float64(sum) / n
	if math.Abs(got-float64(mean))/float64(mean) > 0.05 {
		t.Fatalf("mean think time = %v, want within 5%% of %v", time.Duration(got), mean)
	}
}

func TestExponentialThinkTimeDeterministicPerWorker(t *testing.T) {
	opts := Options{ThinkTime: time.Second, ThinkTimeModel: ThinkTimeExponential, RandomSeed: 7}
	a, b := newThinkTimer(opts, 1), newThinkTimer(opts, 1)
	for i := 0; i < 5; i++ {
		if x, y := a.Next(), b.Next(); x != y {
			t.Fatalf("sample %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestExponentialZeroThinkTimeFallsBackToConstant(t *testing.T) {
	timer := newThinkTimer(Options{ThinkTimeModel: ThinkTimeExponential}, 0)
	if got := timer.Next(); got != 0 {
		t.Fatalf("Next() = %v, want 0", got)
	}
}
