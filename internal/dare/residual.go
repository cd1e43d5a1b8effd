package dare

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/linalg"
)

// Residual returns ‖AᵀSA − S − (AᵀSB)(R + BᵀSB)⁻¹(BᵀSA) + Q‖_F, which is zero
// for an exact solution of the DARE.
func Residual(A, B, Q, R, S mat.Matrix) (float64, error) {
	n, _, err := checkInputs(A, B, Q, R)
	if err != nil {
		return 0, err
	}
	if sr, sc := S.Dims(); sr != n || sc != n {
		return 0, fmt.Errorf("%w: S is %dx%d for %d states", ErrDimensionMismatch, sr, sc, n)
	}

	var AtS, AtSA, AtSB, BtSA, BtS, M mat.Dense
	AtS.Mul(A.T(), S)
	AtSA.Mul(&AtS, A)
	AtSB.Mul(&AtS, B)
	BtS.Mul(B.T(), S)
	BtSA.Mul(&BtS, A)

	// R + BᵀSB
	M.Mul(&BtS, B)
	M.Add(R, &M)

	lu, err := linalg.LU(&M)
	if err != nil {
		return 0, err
	}
	X, err := lu.Solve(&BtSA)
	if err != nil {
		return 0, err
	}

	var res mat.Dense
	res.Mul(&AtSB, X)
	res.Sub(&AtSA, &res)
	res.Sub(&res, S)
	res.Add(&res, Q)
	return linalg.Frobenius(&res), nil
}
