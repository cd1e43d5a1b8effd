package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Identity returns a new n×n identity matrix.
func Identity(n int) *mat.Dense {
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}

// Zeros returns a new r×c matrix of zeros.
func Zeros(r, c int) *mat.Dense {
	return mat.NewDense(r, c, nil)
}

// Diag returns a square matrix with values on its diagonal.
func Diag(values ...float64) *mat.Dense {
	d := mat.NewDense(len(values), len(values), nil)
	for i, v := range values {
		d.Set(i, i, v)
	}
	return d
}

// FromRows builds a dense matrix from row slices. Rows shorter than the first
// are zero padded.
func FromRows(rows [][]float64) *mat.Dense {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	r, c := len(rows), len(rows[0])
	m := mat.NewDense(r, c, nil)
	for i, row := range rows {
		for j := 0; j < c && j < len(row); j++ {
			m.Set(i, j, row[j])
		}
	}
	return m
}

// ToRows copies a matrix into row slices.
func ToRows(a mat.Matrix) [][]float64 {
	r, c := a.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = a.At(i, j)
		}
	}
	return rows
}

// Frobenius returns the square root of the sum of squared entries of a.
func Frobenius(a mat.Matrix) float64 {
	return mat.Norm(a, 2)
}

// Asymmetry returns ‖a − aᵀ‖_F.
func Asymmetry(a mat.Matrix) float64 {
	r, c := a.Dims()
	if r != c {
		return math.Inf(1)
	}
	var d mat.Dense
	d.Sub(a, a.T())
	return Frobenius(&d)
}

// IsSymmetric reports whether ‖a − aᵀ‖_F ≤ tol·max(1, ‖a‖_F).
func IsSymmetric(a mat.Matrix, tol float64) bool {
	return Asymmetry(a) <= tol*math.Max(1, Frobenius(a))
}

// Symmetrize returns (a + aᵀ)/2 as a symmetric matrix.
func Symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}

// IsFinite reports whether every entry of a is neither NaN nor Inf.
func IsFinite(a mat.Matrix) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// IsSquare reports whether a has as many rows as columns.
func IsSquare(a mat.Matrix) bool {
	r, c := a.Dims()
	return r == c
}
