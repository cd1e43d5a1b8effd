package models

import (
	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/plant"
	"github.com/san-kum/dare/internal/sim"
)

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.2
)

// SpringChain is n masses joined by springs, with walls at both ends and
// the force input acting on the first mass. State is all positions followed
// by all velocities. The chain is linear, so Linearize is exact.
type SpringChain struct {
	Masses    []float64
	Stiffness []float64 // n+1 springs, wall to wall
	Damping   []float64
}

func NewSpringChain(n int) *SpringChain {
	s := &SpringChain{
		Masses:    make([]float64, n),
		Stiffness: make([]float64, n+1),
		Damping:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.Masses[i] = DefaultMass
		s.Stiffness[i] = DefaultStiffness
		s.Damping[i] = DefaultDamping
	}
	s.Stiffness[n] = DefaultStiffness
	return s
}

func (s *SpringChain) StateDim() int   { return 2 * len(s.Masses) }
func (s *SpringChain) ControlDim() int { return 1 }

func (s *SpringChain) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	n := len(s.Masses)
	dx := make(sim.State, 2*n)
	copy(dx[:n], x[n:])

	for i := 0; i < n; i++ {
		pos := x[i]
		left, right := 0.0, 0.0
		if i > 0 {
			left = x[i-1]
		}
		if i < n-1 {
			right = x[i+1]
		}

		force := -s.Stiffness[i]*(pos-left) - s.Stiffness[i+1]*(pos-right) - s.Damping[i]*x[n+i]
		if i == 0 && len(u) > 0 {
			force += u[0]
		}
		dx[n+i] = force / s.Masses[i]
	}
	return dx
}

func (s *SpringChain) Linearize() plant.StateSpaceModel {
	n := len(s.Masses)
	a := make([][]float64, 2*n)
	for i := range a {
		a[i] = make([]float64, 2*n)
	}
	b := make([][]float64, 2*n)
	for i := range b {
		b[i] = []float64{0}
	}

	for i := 0; i < n; i++ {
		a[i][n+i] = 1

		m := s.Masses[i]
		a[n+i][i] = -(s.Stiffness[i] + s.Stiffness[i+1]) / m
		if i > 0 {
			a[n+i][i-1] = s.Stiffness[i] / m
		}
		if i < n-1 {
			a[n+i][i+1] = s.Stiffness[i+1] / m
		}
		a[n+i][n+i] = -s.Damping[i] / m
	}
	b[n][0] = 1 / s.Masses[0]

	model, _ := plant.NewStateSpaceModel(linalg.FromRows(a), linalg.FromRows(b))
	return model
}
