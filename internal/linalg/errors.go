package linalg

import "errors"

var (
	// ErrNotPositiveDefinite indicates a Cholesky factorization failed.
	ErrNotPositiveDefinite = errors.New("linalg: matrix is not positive definite")

	// ErrSingular indicates an LU factorization is singular or numerically singular.
	ErrSingular = errors.New("linalg: matrix is singular")

	// ErrNonFinite indicates NaN or Inf entries where finite values are required.
	ErrNonFinite = errors.New("linalg: matrix has NaN or Inf entries")

	// ErrNotSquare indicates an operation that needs a square matrix got another shape.
	ErrNotSquare = errors.New("linalg: matrix is not square")

	// ErrEigen indicates the eigen decomposition did not converge.
	ErrEigen = errors.New("linalg: eigen decomposition failed")
)
