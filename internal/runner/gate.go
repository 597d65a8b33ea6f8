package runner

import (
	"sync"

	"github.com/torosent/vudrive/internal/metrics"
)

// recordGate forwards outcomes to the run's collector until it is sealed.
// The driver seals it right before taking the summary so workers that are
// still unwinding after an abort cannot grow the collector past the
// reported totals.
type recordGate struct {
	mu     sync.RWMutex
	sealed bool
	next   Collector
}

func newRecordGate(next Collector) *recordGate {
	return &recordGate{next: next}
}

// record reports whether the outcome reached the collector.
func (g *recordGate) record(o metrics.Outcome) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.sealed {
		return false
	}
	g.next.Record(o)
	return true
}

func (g *recordGate) seal() {
	g.mu.Lock()
	g.sealed = true
	g.mu.Unlock()
}
