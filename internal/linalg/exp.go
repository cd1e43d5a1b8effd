package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Exp returns e^a computed by gonum's scaling-and-squaring Padé approximant.
// Non-finite input or output is reported as ErrNonFinite, as is a panic from
// the underlying routine.
func Exp(a mat.Matrix) (e *mat.Dense, err error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("exp of %dx%d: %w", r, c, ErrNotSquare)
	}
	if !IsFinite(a) {
		return nil, fmt.Errorf("exp input: %w", ErrNonFinite)
	}

	defer func() {
		if p := recover(); p != nil {
			e, err = nil, fmt.Errorf("exp: %w: %v", ErrNonFinite, p)
		}
	}()

	var out mat.Dense
	out.Exp(a)
	if !IsFinite(&out) {
		return nil, fmt.Errorf("exp output: %w", ErrNonFinite)
	}
	return &out, nil
}
