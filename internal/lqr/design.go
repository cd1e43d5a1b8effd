package lqr

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/dare"
	"github.com/san-kum/dare/internal/discretize"
	"github.com/san-kum/dare/internal/plant"
)

// Result is a complete discrete LQR design for one problem.
type Result struct {
	Problem  plant.Problem
	Discrete *discretize.Model

	S *mat.Dense
	K *mat.Dense

	Iterations     int
	Residual       float64
	SpectralRadius float64

	// SolveTime covers the Riccati solve only.
	SolveTime time.Duration
}

// Stable reports whether the designed closed loop is asymptotically stable.
func (r *Result) Stable() bool {
	return r.SpectralRadius < 1
}

// Design discretizes p under a zero-order hold, solves the DARE and derives
// the feedback gain.
func Design(p plant.Problem, opts ...dare.Option) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	d, err := discretize.DiscretizeModel(p.Model, p.Dt)
	if err != nil {
		return nil, fmt.Errorf("design %q: %w", p.Name, err)
	}

	Q, R := p.Weights.Q, p.Weights.R

	start := time.Now()
	sol, err := dare.Solve(d.A, d.B, Q, R, opts...)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("design %q: %w", p.Name, err)
	}

	K, err := Gain(d.A, d.B, R, sol.S)
	if err != nil {
		return nil, fmt.Errorf("design %q: %w", p.Name, err)
	}

	res, err := dare.Residual(d.A, d.B, Q, R, sol.S)
	if err != nil {
		return nil, fmt.Errorf("design %q: %w", p.Name, err)
	}

	_, rho, err := Stable(ClosedLoop(d.A, d.B, K))
	if err != nil {
		return nil, fmt.Errorf("design %q: closed loop: %w", p.Name, err)
	}

	return &Result{
		Problem:        p,
		Discrete:       d,
		S:              sol.S,
		K:              K,
		Iterations:     sol.Iterations,
		Residual:       res,
		SpectralRadius: rho,
		SolveTime:      elapsed,
	}, nil
}

// Controller returns the state-feedback law for this design, regulating to
// the origin.
func (r *Result) Controller() *Controller {
	n, _ := r.Discrete.Dims()
	return NewController(r.K, make([]float64, n))
}
