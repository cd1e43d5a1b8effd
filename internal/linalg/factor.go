package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Chol is a Cholesky factorization of a symmetric positive-definite matrix.
type Chol struct {
	chol mat.Cholesky
}

// Cholesky factorizes the symmetric part of a. It fails with
// ErrNotPositiveDefinite when a is not positive definite.
func Cholesky(a mat.Matrix) (*Chol, error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("cholesky of %dx%d: %w", r, c, ErrNotSquare)
	}
	if !IsFinite(a) {
		return nil, fmt.Errorf("cholesky: %w", ErrNonFinite)
	}
	ch := &Chol{}
	if ok := ch.chol.Factorize(Symmetrize(a)); !ok {
		return nil, ErrNotPositiveDefinite
	}
	return ch, nil
}

// Solve returns x such that A x = b.
func (ch *Chol) Solve(b mat.Matrix) (*mat.Dense, error) {
	var x mat.Dense
	if err := ch.chol.SolveTo(&x, b); err != nil {
		return nil, fmt.Errorf("cholesky solve: %w: %v", ErrNotPositiveDefinite, err)
	}
	return &x, nil
}

// LUFactor is an LU factorization with partial pivoting that can be reused
// for any number of right-hand sides.
type LUFactor struct {
	lu mat.LU
}

// LU factorizes the square matrix a. Singularity is reported by Solve.
func LU(a mat.Matrix) (*LUFactor, error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("lu of %dx%d: %w", r, c, ErrNotSquare)
	}
	if !IsFinite(a) {
		return nil, fmt.Errorf("lu: %w", ErrNonFinite)
	}
	f := &LUFactor{}
	f.lu.Factorize(a)
	return f, nil
}

// Solve returns x such that A x = b. It fails with ErrSingular when the
// factorized matrix is exactly or numerically singular.
func (f *LUFactor) Solve(b mat.Matrix) (*mat.Dense, error) {
	var x mat.Dense
	if err := f.lu.SolveTo(&x, false, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return &x, nil
}

// Cond returns the estimated condition number of the factorized matrix.
func (f *LUFactor) Cond() float64 {
	return f.lu.Cond()
}
