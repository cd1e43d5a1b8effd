package dare

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch indicates A, B, Q and R do not describe one n-state,
	// m-input problem.
	ErrDimensionMismatch = errors.New("dare: dimension mismatch")

	// ErrNonFiniteInput indicates NaN or Inf entries in an input matrix.
	ErrNonFiniteInput = errors.New("dare: input has NaN or Inf entries")

	// ErrNonPositiveDefiniteR indicates the Cholesky factorization of R failed.
	ErrNonPositiveDefiniteR = errors.New("dare: R is not positive definite")

	// ErrSingularIteration indicates W = I + GₖHₖ became singular.
	ErrSingularIteration = errors.New("dare: singular matrix during iteration")

	// ErrNonConvergence indicates the iteration cap was reached before the
	// tolerance was met.
	ErrNonConvergence = errors.New("dare: iteration did not converge")

	// ErrInvalidOption indicates a tolerance or iteration cap out of range.
	ErrInvalidOption = errors.New("dare: invalid solver option")
)

// IterationError wraps a failure with the doubling step it happened at.
type IterationError struct {
	Iteration int
	// Delta is the last relative change ‖Hₖ₊₁ − Hₖ‖_F / ‖Hₖ₊₁‖_F observed, or
	// NaN when no step completed.
	Delta   float64
	Wrapped error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("%v (iteration %d, relative change %.3g)", e.Wrapped, e.Iteration, e.Delta)
}

func (e *IterationError) Unwrap() error {
	return e.Wrapped
}
