// Package dare solves the discrete-time algebraic Riccati equation
//
//	S = AᵀSA − (AᵀSB)(R + BᵀSB)⁻¹(BᵀSA) + Q
//
// for its stabilizing symmetric positive semi-definite solution using the
// Structure-preserving Doubling Algorithm.
//
// Works cited:
//
//	E. K.-W. Chu, H.-Y. Fan, W.-W. Lin & C.-S. Wang, "Structure-Preserving
//	Algorithms for Periodic Discrete-Time Algebraic Riccati Equations",
//	International Journal of Control, 77:8, 767-788, 2004.
//	DOI: 10.1080/00207170410001714988
//
// # Usage
//
//	sol, err := dare.Solve(A, B, Q, R, dare.WithTolerance(1e-12))
//	if errors.Is(err, dare.ErrNonPositiveDefiniteR) {
//		// fix the cost weighting
//	}
//
// # Thread Safety
//
// Solve holds no package state. Concurrent calls are safe as long as their
// input matrices are not mutated while the calls run.
package dare
