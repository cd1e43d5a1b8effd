// Package discretize converts continuous-time linear plants into their
// discrete-time equivalents under a zero-order hold.
package discretize

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/plant"
)

var (
	// ErrDimensionMismatch indicates contA is not square or contB does not
	// share its row count.
	ErrDimensionMismatch = errors.New("discretize: dimension mismatch between A and B")

	// ErrInvalidTimestep indicates a non-positive or non-finite dt.
	ErrInvalidTimestep = errors.New("discretize: timestep must be positive and finite")

	// ErrMatrixExponential indicates the exponential of the augmented matrix
	// could not be computed.
	ErrMatrixExponential = errors.New("discretize: matrix exponential failed")
)

// Model is a discrete-time plant x[k+1] = A x[k] + B u[k].
type Model struct {
	A *mat.Dense
	B *mat.Dense
}

// Dims returns the number of states and inputs.
func (m *Model) Dims() (states, inputs int) {
	states, inputs = m.B.Dims()
	return states, inputs
}

// Discretize returns the exact zero-order-hold discretization of
// ẋ = contA x + contB u sampled every dt:
//
//	M = [contA contB]    Φ = e^(M dt) = [discA discB]
//	    [  0     0  ]                   [  0     I  ]
func Discretize(contA, contB mat.Matrix, dt float64) (*Model, error) {
	n, m, err := checkDims(contA, contB)
	if err != nil {
		return nil, err
	}
	if err := checkTimestep(dt); err != nil {
		return nil, err
	}

	aug := mat.NewDense(n+m, n+m, nil)
	aug.Slice(0, n, 0, n).(*mat.Dense).Scale(dt, contA)
	aug.Slice(0, n, n, n+m).(*mat.Dense).Scale(dt, contB)

	phi, err := linalg.Exp(aug)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMatrixExponential, err)
	}

	return &Model{
		A: mat.DenseCopyOf(phi.Slice(0, n, 0, n)),
		B: mat.DenseCopyOf(phi.Slice(0, n, n, n+m)),
	}, nil
}

// DiscretizeModel is Discretize applied to a plant model.
func DiscretizeModel(m plant.StateSpaceModel, dt float64) (*Model, error) {
	if m.A == nil || m.B == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrDimensionMismatch)
	}
	return Discretize(m.A, m.B, dt)
}

// Euler returns the first-order approximation discA = I + dt·contA,
// discB = dt·contB. It is only accurate for small dt and exists to measure
// how far the exact discretization departs from it.
func Euler(contA, contB mat.Matrix, dt float64) (*Model, error) {
	n, _, err := checkDims(contA, contB)
	if err != nil {
		return nil, err
	}
	if err := checkTimestep(dt); err != nil {
		return nil, err
	}

	var a, b mat.Dense
	a.Scale(dt, contA)
	a.Add(&a, linalg.Identity(n))
	b.Scale(dt, contB)
	return &Model{A: &a, B: &b}, nil
}

func checkDims(contA, contB mat.Matrix) (n, m int, err error) {
	if contA == nil || contB == nil {
		return 0, 0, fmt.Errorf("%w: nil matrix", ErrDimensionMismatch)
	}
	ar, ac := contA.Dims()
	br, bc := contB.Dims()
	if ar == 0 || bc == 0 {
		return 0, 0, fmt.Errorf("%w: empty matrix", ErrDimensionMismatch)
	}
	if ar != ac {
		return 0, 0, fmt.Errorf("%w: A is %dx%d", ErrDimensionMismatch, ar, ac)
	}
	if br != ar {
		return 0, 0, fmt.Errorf("%w: A is %dx%d, B is %dx%d", ErrDimensionMismatch, ar, ac, br, bc)
	}
	return ar, bc, nil
}

func checkTimestep(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidTimestep, dt)
	}
	return nil
}
