package metrics

import (
	"math"

	"github.com/san-kum/dare/internal/sim"
)

// ControlEffort is the mean absolute control input per sample.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x sim.State, u sim.Control, t float64) {
	for _, v := range u {
		c.sum += math.Abs(v)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum, c.samples = 0, 0
}

// PeakControl is the largest absolute input component seen, for checking a
// design against actuator limits.
type PeakControl struct {
	peak float64
}

func NewPeakControl() *PeakControl {
	return &PeakControl{}
}

func (p *PeakControl) Name() string { return "peak_control" }

func (p *PeakControl) Observe(x sim.State, u sim.Control, t float64) {
	for _, v := range u {
		p.peak = math.Max(p.peak, math.Abs(v))
	}
}

func (p *PeakControl) Value() float64 { return p.peak }

func (p *PeakControl) Reset() { p.peak = 0 }
