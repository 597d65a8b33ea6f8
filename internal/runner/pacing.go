package runner

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// ThinkTimeModel selects how pauses between requests are generated.
type ThinkTimeModel string

const (
	ThinkTimeConstant    ThinkTimeModel = "constant"
	ThinkTimeExponential ThinkTimeModel = "exponential"
)

func (m ThinkTimeModel) valid() bool {
	return m == ThinkTimeConstant || m == ThinkTimeExponential
}

type thinkTimer interface {
	Next() time.Duration
}

func newThinkTimer(opt Options, workerID int) thinkTimer {
	if opt.ThinkTimeModel != ThinkTimeExponential || opt.ThinkTime <= 0 {
		return constantThink(opt.ThinkTime)
	}

	var sampler func() float64
	if opt.ThinkTimeSampler != nil {
		sampler = opt.ThinkTimeSampler
	} else {
		// One source per worker; rand.Rand is not safe for concurrent use.
		seeded := rand.New(rand.NewSource(opt.RandomSeed + int64(workerID)))
		sampler = seeded.ExpFloat64
	}
	return &exponentialThink{mean: opt.ThinkTime, sample: sampler}
}

// constantThink pauses for the same duration every iteration.
type constantThink time.Duration

func (c constantThink) Next() time.Duration { return time.Duration(c) }

// exponentialThink samples exponential pauses with the configured mean,
// approximating a Poisson arrival process per virtual user.
type exponentialThink struct {
	mu     sync.Mutex
	mean   time.Duration
	sample func() float64
}

func (e *exponentialThink) Next() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mean <= 0 || e.sample == nil {
		return 0
	}
	delay := float64(e.mean) * e.sample()
	if delay > math.MaxInt64 {
		delay = math.MaxInt64
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
