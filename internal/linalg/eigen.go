package linalg

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Eigenvalues returns the (possibly complex) eigenvalues of the square matrix a.
func Eigenvalues(a mat.Matrix) ([]complex128, error) {
	if !IsSquare(a) {
		return nil, ErrNotSquare
	}
	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenNone); !ok {
		return nil, ErrEigen
	}
	return eig.Values(nil), nil
}

// SpectralRadius returns the largest eigenvalue magnitude of a.
func SpectralRadius(a mat.Matrix) (float64, error) {
	vals, err := Eigenvalues(a)
	if err != nil {
		return 0, err
	}
	rho := 0.0
	for _, v := range vals {
		if m := cmplx.Abs(v); m > rho {
			rho = m
		}
	}
	return rho, nil
}

// MinSymEigenvalue returns the smallest eigenvalue of the symmetric part of a.
func MinSymEigenvalue(a mat.Matrix) (float64, error) {
	if !IsSquare(a) {
		return 0, ErrNotSquare
	}
	var es mat.EigenSym
	if ok := es.Factorize(Symmetrize(a), false); !ok {
		return 0, fmt.Errorf("symmetric %w", ErrEigen)
	}
	vals := es.Values(nil)
	lo := vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
	}
	return lo, nil
}
