// Package linalg is the dense-matrix layer used by the discretizer and the
// Riccati solver.
//
// It wraps [gonum.org/v1/gonum/mat] and turns the library's boolean and
// panic-style failure reporting into sentinel errors:
//
//   - [Cholesky]: factorization and solve for symmetric positive-definite systems
//   - [LU]: factorization and repeated solves for general square systems
//   - [Exp]: matrix exponential with a finiteness check on input and output
//   - [Frobenius], [IsSymmetric], [Identity]: the small helpers the algorithms need
//
// Eigenvalue helpers exist for closed-loop analysis only; nothing in the
// solver path depends on them.
package linalg
