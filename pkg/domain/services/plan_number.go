package services

import (
	"fmt"
	"sync"
	"time"
)

// PlanNumberGenerator issues unique, human-readable plan numbers of the form
// PREFIX-YYYYMMDD-NNNN. Sequences are tracked per (prefix, day) so numbers
// stay short and sortable within a planning day.
type PlanNumberGenerator struct {
	mu   sync.Mutex
	seqs map[string]int
	now  func() time.Time
}

// NewPlanNumberGenerator creates a generator using the wall clock.
func NewPlanNumberGenerator() *PlanNumberGenerator {
	return &PlanNumberGenerator{
		seqs: make(map[string]int),
		now:  time.Now,
	}
}

// NewPlanNumberGeneratorAt creates a generator with a fixed clock, for tests.
func NewPlanNumberGeneratorAt(now func() time.Time) *PlanNumberGenerator {
	return &PlanNumberGenerator{
		seqs: make(map[string]int),
		now:  now,
	}
}

// Next returns the next plan number for a prefix.
func (g *PlanNumberGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := g.now().UTC().Format("20060102")
	key := prefix + "-" + day
	g.seqs[key]++
	return fmt.Sprintf("%s-%s-%04d", prefix, day, g.seqs[key])
}

// Seed advances a (prefix, day) sequence so restarts do not reissue numbers
// already persisted. last is the highest sequence seen in the store.
func (g *PlanNumberGenerator) Seed(prefix string, day time.Time, last int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := prefix + "-" + day.UTC().Format("20060102")
	if last > g.seqs[key] {
		g.seqs[key] = last
	}
}
