package models

import (
	"math"

	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/plant"
	"github.com/san-kum/dare/internal/sim"
)

// CartPole balances a pole on a force-driven cart. State is
// [x, ẋ, θ, ω] with θ from upright; input is the horizontal force.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64
	Gravity    float64
}

func NewCartPole() *CartPole {
	return &CartPole{
		CartMass:   1.0,
		PoleMass:   0.1,
		PoleLength: 1.0,
		Gravity:    9.81,
	}
}

func (c *CartPole) StateDim() int   { return 4 }
func (c *CartPole) ControlDim() int { return 1 }

func (c *CartPole) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	vel, theta, omega := x[1], x[2], x[3]

	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}

	total := c.CartMass + c.PoleMass
	l := c.PoleLength
	sint, cost := math.Sin(theta), math.Cos(theta)

	temp := (force + c.PoleMass*l*omega*omega*sint) / total
	thetaAcc := (c.Gravity*sint - cost*temp) / (l * (4.0/3.0 - c.PoleMass*cost*cost/total))
	xAcc := temp - c.PoleMass*l*thetaAcc*cost/total

	return sim.State{vel, xAcc, omega, thetaAcc}
}

func (c *CartPole) Linearize() plant.StateSpaceModel {
	total := c.CartMass + c.PoleMass
	l := c.PoleLength
	lEff := l * (4.0/3.0 - c.PoleMass/total)

	dThetaDTheta := c.Gravity / lEff
	dThetaDForce := -1 / (total * lEff)
	dXDTheta := -c.PoleMass * l * dThetaDTheta / total
	dXDForce := 1/total - c.PoleMass*l*dThetaDForce/total

	return plant.StateSpaceModel{
		A: linalg.FromRows([][]float64{
			{0, 1, 0, 0},
			{0, 0, dXDTheta, 0},
			{0, 0, 0, 1},
			{0, 0, dThetaDTheta, 0},
		}),
		B: linalg.FromRows([][]float64{{0}, {dXDForce}, {0}, {dThetaDForce}}),
	}
}
