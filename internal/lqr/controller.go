package lqr

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/sim"
)

// Controller applies u = −K(x − Target), optionally clamping each input to
// ±Limits[i].
type Controller struct {
	K      *mat.Dense
	Target sim.State
	Limits []float64
}

func NewController(k mat.Matrix, target sim.State) *Controller {
	return &Controller{K: mat.DenseCopyOf(k), Target: target}
}

// WithLimits sets symmetric input saturation. A non-positive limit leaves
// that input unclamped.
func (c *Controller) WithLimits(limits ...float64) *Controller {
	c.Limits = limits
	return c
}

func (c *Controller) Compute(x sim.State, t float64) sim.Control {
	m, n := c.K.Dims()

	e := mat.NewVecDense(n, nil)
	for j := 0; j < n && j < len(x); j++ {
		target := 0.0
		if j < len(c.Target) {
			target = c.Target[j]
		}
		e.SetVec(j, x[j]-target)
	}

	var ku mat.VecDense
	ku.MulVec(c.K, e)

	u := make(sim.Control, m)
	for i := range u {
		u[i] = -ku.AtVec(i)
		if i < len(c.Limits) && c.Limits[i] > 0 {
			u[i] = clamp(u[i], c.Limits[i])
		}
	}
	return u
}

func clamp(v, limit float64) float64 {
	switch {
	case v > limit:
		return limit
	case v < -limit:
		return -limit
	}
	return v
}

// OpenLoop is the zero controller, for simulating the uncontrolled plant.
type OpenLoop struct {
	dim int
}

func NewOpenLoop(dim int) *OpenLoop {
	return &OpenLoop{dim: dim}
}

func (o *OpenLoop) Compute(x sim.State, t float64) sim.Control {
	return make(sim.Control, o.dim)
}
