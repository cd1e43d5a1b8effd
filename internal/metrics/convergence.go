package metrics

import (
	"math"

	"github.com/san-kum/dare/internal/sim"
)

// Stability is the fraction of samples whose state stays within threshold
// of the origin in every component.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(x sim.State, u sim.Control, t float64) {
	s.samples++
	for _, v := range x {
		if math.Abs(v) > s.threshold {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations, s.samples = 0, 0
}

// SettlingTime is the earliest sample time after which ‖x‖ stays within
// tolerance times the initial norm. It is +Inf for a run that never settles.
type SettlingTime struct {
	tolerance float64
	initial   float64
	started   bool
	settledAt float64
	settled   bool
}

func NewSettlingTime(tolerance float64) *SettlingTime {
	return &SettlingTime{tolerance: tolerance}
}

func (s *SettlingTime) Name() string { return "settling_time" }

func (s *SettlingTime) Observe(x sim.State, u sim.Control, t float64) {
	n := x.Norm()
	if !s.started {
		s.initial, s.started = n, true
	}
	if n > s.tolerance*s.initial {
		s.settled = false
		return
	}
	if !s.settled {
		s.settledAt, s.settled = t, true
	}
}

func (s *SettlingTime) Value() float64 {
	if !s.settled {
		return math.Inf(1)
	}
	return s.settledAt
}

func (s *SettlingTime) Reset() {
	*s = SettlingTime{tolerance: s.tolerance}
}
