// Package plant holds the problem data for an LQR design: a continuous-time
// linear model, its cost weights and the sample period.
package plant

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/linalg"
)

var (
	ErrDimensionMismatch = errors.New("plant: dimension mismatch")
	ErrInvalidExcursion  = errors.New("plant: excursions must be positive")
	ErrAsymmetricWeight  = errors.New("plant: cost weight is not symmetric")
)

// symmetryTol bounds ‖W − Wᵀ‖_F relative to ‖W‖_F for a cost weight W.
const symmetryTol = 1e-9

// StateSpaceModel is ẋ = A x + B u with A n×n and B n×m.
type StateSpaceModel struct {
	A *mat.Dense
	B *mat.Dense
}

// NewStateSpaceModel validates shapes and copies a and b.
func NewStateSpaceModel(a, b mat.Matrix) (StateSpaceModel, error) {
	if a == nil || b == nil {
		return StateSpaceModel{}, fmt.Errorf("%w: nil matrix", ErrDimensionMismatch)
	}
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar == 0 || bc == 0 || ar != ac || br != ar {
		return StateSpaceModel{}, fmt.Errorf("%w: A is %dx%d, B is %dx%d", ErrDimensionMismatch, ar, ac, br, bc)
	}
	return StateSpaceModel{A: mat.DenseCopyOf(a), B: mat.DenseCopyOf(b)}, nil
}

// Dims returns the number of states and inputs.
func (m StateSpaceModel) Dims() (states, inputs int) {
	return m.B.Dims()
}

// CostWeights are the LQR state weight Q (n×n) and input weight R (m×m).
type CostWeights struct {
	Q *mat.Dense
	R *mat.Dense
}

// NewCostWeights validates shapes and symmetry and copies q and r.
// Definiteness of R is checked by the solver.
func NewCostWeights(q, r mat.Matrix) (CostWeights, error) {
	if q == nil || r == nil {
		return CostWeights{}, fmt.Errorf("%w: nil matrix", ErrDimensionMismatch)
	}
	if !linalg.IsSquare(q) || !linalg.IsSquare(r) {
		qr, qc := q.Dims()
		rr, rc := r.Dims()
		return CostWeights{}, fmt.Errorf("%w: Q is %dx%d, R is %dx%d", ErrDimensionMismatch, qr, qc, rr, rc)
	}
	if err := checkSymmetric(q, r); err != nil {
		return CostWeights{}, err
	}
	return CostWeights{Q: mat.DenseCopyOf(q), R: mat.DenseCopyOf(r)}, nil
}

func checkSymmetric(q, r mat.Matrix) error {
	if !linalg.IsSymmetric(q, symmetryTol) {
		return fmt.Errorf("%w: Q (‖Q−Qᵀ‖ = %.3g)", ErrAsymmetricWeight, linalg.Asymmetry(q))
	}
	if !linalg.IsSymmetric(r, symmetryTol) {
		return fmt.Errorf("%w: R (‖R−Rᵀ‖ = %.3g)", ErrAsymmetricWeight, linalg.Asymmetry(r))
	}
	return nil
}

// Bryson builds diagonal weights from the largest acceptable excursion of
// each state and input: Q = diag(1/x²), R = diag(1/u²).
func Bryson(states, inputs []float64) (CostWeights, error) {
	if len(states) == 0 || len(inputs) == 0 {
		return CostWeights{}, fmt.Errorf("%w: empty excursion list", ErrInvalidExcursion)
	}
	q, err := inverseSquares(states)
	if err != nil {
		return CostWeights{}, err
	}
	r, err := inverseSquares(inputs)
	if err != nil {
		return CostWeights{}, err
	}
	return CostWeights{Q: linalg.Diag(q...), R: linalg.Diag(r...)}, nil
}

func inverseSquares(xs []float64) ([]float64, error) {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if !(x > 0) {
			return nil, fmt.Errorf("%w: got %v at %d", ErrInvalidExcursion, x, i)
		}
		out[i] = 1 / (x * x)
	}
	return out, nil
}

// Problem is one design problem: a plant, its weights and the sample period.
type Problem struct {
	Name    string
	Model   StateSpaceModel
	Weights CostWeights
	Dt      float64
}

// Validate checks that the weights fit the model and are symmetric.
func (p Problem) Validate() error {
	if p.Model.A == nil || p.Model.B == nil || p.Weights.Q == nil || p.Weights.R == nil {
		return fmt.Errorf("%w: incomplete problem %q", ErrDimensionMismatch, p.Name)
	}
	n, m := p.Model.Dims()
	qr, _ := p.Weights.Q.Dims()
	rr, _ := p.Weights.R.Dims()
	if qr != n || rr != m {
		return fmt.Errorf("%w: %d states/%d inputs with Q %dx%d and R %dx%d",
			ErrDimensionMismatch, n, m, qr, qr, rr, rr)
	}
	if err := checkSymmetric(p.Weights.Q, p.Weights.R); err != nil {
		return err
	}
	if !(p.Dt > 0) {
		return fmt.Errorf("plant: dt must be positive, got %v", p.Dt)
	}
	return nil
}
