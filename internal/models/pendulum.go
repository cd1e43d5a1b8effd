package models

import (
	"math"

	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/plant"
	"github.com/san-kum/dare/internal/sim"
)

// Pendulum is a torque-driven pendulum with θ measured from upright, so the
// origin is the unstable equilibrium. State is [θ, ω], input is [τ].
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *Pendulum) StateDim() int   { return 2 }
func (p *Pendulum) ControlDim() int { return 1 }

func (p *Pendulum) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	theta, omega := x[0], x[1]

	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}
	inertia := p.Mass * p.Length * p.Length
	alpha := (p.Mass*p.Gravity*p.Length*math.Sin(theta) - p.Damping*omega + torque) / inertia

	return sim.State{omega, alpha}
}

func (p *Pendulum) Linearize() plant.StateSpaceModel {
	inertia := p.Mass * p.Length * p.Length
	return plant.StateSpaceModel{
		A: linalg.FromRows([][]float64{
			{0, 1},
			{p.Gravity / p.Length, -p.Damping / inertia},
		}),
		B: linalg.FromRows([][]float64{{0}, {1 / inertia}}),
	}
}
