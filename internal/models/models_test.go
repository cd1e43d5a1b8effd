package models

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/sim"
)

// jacobian estimates ∂f/∂x and ∂f/∂u at the origin by central differences.
func jacobian(dyn sim.Dynamics) (a, b *mat.Dense) {
	n, m := dyn.StateDim(), dyn.ControlDim()
	const h = 1e-6
	a, b = mat.NewDense(n, n, nil), mat.NewDense(n, m, nil)

	for j := 0; j < n; j++ {
		xp, xm := make(sim.State, n), make(sim.State, n)
		xp[j], xm[j] = h, -h
		fp := dyn.Derivative(xp, make(sim.Control, m), 0)
		fm := dyn.Derivative(xm, make(sim.Control, m), 0)
		for i := 0; i < n; i++ {
			a.Set(i, j, (fp[i]-fm[i])/(2*h))
		}
	}
	for j := 0; j < m; j++ {
		up, um := make(sim.Control, m), make(sim.Control, m)
		up[j], um[j] = h, -h
		fp := dyn.Derivative(make(sim.State, n), up, 0)
		fm := dyn.Derivative(make(sim.State, n), um, 0)
		for i := 0; i < n; i++ {
			b.Set(i, j, (fp[i]-fm[i])/(2*h))
		}
	}
	return a, b
}

func TestLinearizeMatchesDerivative(t *testing.T) {
	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			dyn, err := Get(name)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			lin := dyn.Linearize()
			a, b := jacobian(dyn)

			if !mat.EqualApprox(lin.A, a, 1e-6) {
				t.Errorf("A mismatch\nanalytic:\n%v\nnumeric:\n%v", mat.Formatted(lin.A), mat.Formatted(a))
			}
			if !mat.EqualApprox(lin.B, b, 1e-6) {
				t.Errorf("B mismatch\nanalytic:\n%v\nnumeric:\n%v", mat.Formatted(lin.B), mat.Formatted(b))
			}

			n, m := lin.Dims()
			if n != dyn.StateDim() || m != dyn.ControlDim() {
				t.Errorf("linearization is %dx%d, model reports %d states and %d inputs", n, m, dyn.StateDim(), dyn.ControlDim())
			}
		})
	}
}

func TestOriginIsEquilibrium(t *testing.T) {
	for _, name := range List() {
		dyn, _ := Get(name)
		dx := dyn.Derivative(make(sim.State, dyn.StateDim()), make(sim.Control, dyn.ControlDim()), 0)
		for i, v := range dx {
			if math.Abs(v) > 1e-12 {
				t.Errorf("%s: dx[%d] = %g at the origin", name, i, v)
			}
		}
	}
}

func TestPendulumFallsAwayFromUpright(t *testing.T) {
	p := NewPendulum()
	dx := p.Derivative(sim.State{0.1, 0}, sim.Control{0}, 0)
	if dx[1] <= 0 {
		t.Errorf("upright pendulum should accelerate away from vertical, got %f", dx[1])
	}
}

func TestLinearMatchesItsModel(t *testing.T) {
	sc := NewSpringChain(2)
	lin := NewLinear(sc.Linearize())

	x := sim.State{0.1, -0.2, 0.3, 0.05}
	u := sim.Control{1.5}
	want := sc.Derivative(x, u, 0)
	got := lin.Derivative(x, u, 0)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("dx[%d] = %f, want %f", i, got[i], want[i])
		}
	}
	if lin.StateDim() != 4 || lin.ControlDim() != 1 {
		t.Errorf("dims = %d, %d", lin.StateDim(), lin.ControlDim())
	}
}

func TestUnknownModel(t *testing.T) {
	if _, err := Get("nbody"); err == nil {
		t.Error("expected error for unknown model")
	}
}
