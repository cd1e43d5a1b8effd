package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/sim"
)

// QuadraticCost accumulates the discrete LQR cost Σ xᵀQx + uᵀRu over the
// samples it observes. For a linear plant started at x₀ under the optimal
// gain it approaches x₀ᵀSx₀ as the run length grows.
type QuadraticCost struct {
	q, r mat.Matrix
	sum  float64
}

func NewQuadraticCost(q, r mat.Matrix) *QuadraticCost {
	return &QuadraticCost{q: q, r: r}
}

func (c *QuadraticCost) Name() string { return "lqr_cost" }

func (c *QuadraticCost) Observe(x sim.State, u sim.Control, t float64) {
	c.sum += quadForm(c.q, x) + quadForm(c.r, u)
}

func (c *QuadraticCost) Value() float64 { return c.sum }

func (c *QuadraticCost) Reset() { c.sum = 0 }

func quadForm(m mat.Matrix, v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	x := mat.NewVecDense(len(v), append([]float64(nil), v...))
	return mat.Inner(x, m, x)
}
