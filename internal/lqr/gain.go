// Package lqr turns a Riccati solution into a state-feedback controller.
package lqr

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/linalg"
)

// ErrGain indicates R + BᵀSB could not be factorized.
var ErrGain = errors.New("lqr: R + BᵀSB is not positive definite")

// Gain returns K = (R + BᵀSB)⁻¹BᵀSA, the optimal feedback u = −Kx for the
// discrete plant (A, B) given the Riccati solution S.
func Gain(A, B, R, S mat.Matrix) (*mat.Dense, error) {
	var btS, m, btSA mat.Dense
	btS.Mul(B.T(), S)
	m.Mul(&btS, B)
	m.Add(R, &m)
	btSA.Mul(&btS, A)

	chol, err := linalg.Cholesky(&m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGain, err)
	}
	k, err := chol.Solve(&btSA)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGain, err)
	}
	return k, nil
}

// ClosedLoop returns A − BK.
func ClosedLoop(A, B, K mat.Matrix) *mat.Dense {
	var bk, cl mat.Dense
	bk.Mul(B, K)
	cl.Sub(A, &bk)
	return &cl
}

// Stable reports whether every eigenvalue of the discrete closed loop lies
// strictly inside the unit circle, along with the spectral radius.
func Stable(closedLoop mat.Matrix) (bool, float64, error) {
	rho, err := linalg.SpectralRadius(closedLoop)
	if err != nil {
		return false, 0, err
	}
	return rho < 1, rho, nil
}
