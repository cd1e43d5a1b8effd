package models

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/plant"
	"github.com/san-kum/dare/internal/sim"
)

// Linear simulates ẋ = Ax + Bu directly from a state-space model.
type Linear struct {
	model plant.StateSpaceModel
}

func NewLinear(m plant.StateSpaceModel) *Linear {
	return &Linear{model: m}
}

func (l *Linear) StateDim() int {
	n, _ := l.model.Dims()
	return n
}

func (l *Linear) ControlDim() int {
	_, m := l.model.Dims()
	return m
}

func (l *Linear) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	n, m := l.model.Dims()
	dx := mat.NewVecDense(n, nil)
	dx.MulVec(l.model.A, mat.NewVecDense(n, x.Clone()))
	if len(u) == m {
		var bu mat.VecDense
		bu.MulVec(l.model.B, mat.NewVecDense(m, append([]float64(nil), u...)))
		dx.AddVec(dx, &bu)
	}
	return sim.State(dx.RawVector().Data)
}

func (l *Linear) Linearize() plant.StateSpaceModel {
	return l.model
}
