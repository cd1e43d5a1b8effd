package dare

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/linalg"
)

// Solution is the converged Riccati matrix. S belongs to the caller.
type Solution struct {
	S          *mat.Dense
	Iterations int
}

// Solve returns the stabilizing solution S of the DARE for the discrete
// plant (A, B) and cost weights (Q, R). A is n×n, B is n×m, Q is n×n
// symmetric positive semi-definite and R is m×m symmetric positive definite.
//
// It implements the SDA on page 5 of Chu, Fan, Lin & Wang (2004):
//
//	A₀ = A, G₀ = BR⁻¹Bᵀ, H₀ = Q
//	W  = I + GₖHₖ
//	V₁ = W⁻¹Aₖ, V₂ = (W⁻¹Gₖᵀ)ᵀ
//	Gₖ₊₁ = Gₖ + AₖV₂Aₖᵀ
//	Hₖ₊₁ = Hₖ + V₁ᵀHₖAₖ
//	Aₖ₊₁ = AₖV₁
//
// until ‖Hₖ₊₁ − Hₖ‖_F ≤ ε‖Hₖ₊₁‖_F.
func Solve(A, B, Q, R mat.Matrix, opts ...Option) (*Solution, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	n, _, err := checkInputs(A, B, Q, R)
	if err != nil {
		return nil, err
	}

	// G₀ = BR⁻¹Bᵀ, solving R X = Bᵀ against the Cholesky factor instead of
	// forming R⁻¹.
	chol, err := linalg.Cholesky(R)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNonPositiveDefiniteR, err)
	}
	rInvBt, err := chol.Solve(B.T())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNonPositiveDefiniteR, err)
	}
	G := new(mat.Dense)
	G.Mul(B, rInvBt)

	Ak := mat.DenseCopyOf(A)
	H := mat.DenseCopyOf(Q)
	eye := linalg.Identity(n)
	delta := math.NaN()

	for k := 0; k < o.MaxIterations; k++ {
		W := new(mat.Dense)
		W.Mul(G, H)
		W.Add(W, eye)

		lu, err := linalg.LU(W)
		if err != nil {
			return nil, iterationFailure(k, delta, err)
		}

		// W V₁ = Aₖ
		V1, err := lu.Solve(Ak)
		if err != nil {
			return nil, iterationFailure(k, delta, err)
		}

		// V₂Wᵀ = Gₖ is solved as W V₂ᵀ = Gₖᵀ on the same factorization.
		V2t, err := lu.Solve(G.T())
		if err != nil {
			return nil, iterationFailure(k, delta, err)
		}

		var tmp mat.Dense

		// Gₖ₊₁ = Gₖ + AₖV₂Aₖᵀ
		Gnext := new(mat.Dense)
		tmp.Mul(Ak, V2t.T())
		Gnext.Mul(&tmp, Ak.T())
		Gnext.Add(G, Gnext)

		// Hₖ₊₁ = Hₖ + V₁ᵀHₖAₖ
		Hnext := new(mat.Dense)
		tmp.Reset()
		tmp.Mul(V1.T(), H)
		Hnext.Mul(&tmp, Ak)
		Hnext.Add(H, Hnext)

		// Aₖ₊₁ = AₖV₁
		Anext := new(mat.Dense)
		Anext.Mul(Ak, V1)

		if !linalg.IsFinite(Hnext) || !linalg.IsFinite(Gnext) {
			return nil, iterationFailure(k, delta, linalg.ErrNonFinite)
		}

		var diff mat.Dense
		diff.Sub(Hnext, H)
		change, norm := linalg.Frobenius(&diff), linalg.Frobenius(Hnext)
		delta = relative(change, norm)

		o.Logger.Debug("sda iteration",
			zap.Int("k", k),
			zap.Float64("delta", delta),
			zap.Float64("norm", norm),
			zap.Float64("cond", lu.Cond()),
		)

		Ak, G, H = Anext, Gnext, Hnext

		if change <= o.Tolerance*norm {
			return &Solution{S: H, Iterations: k + 1}, nil
		}
	}

	return nil, &IterationError{
		Iteration: o.MaxIterations,
		Delta:     delta,
		Wrapped:   fmt.Errorf("%w after %d iterations", ErrNonConvergence, o.MaxIterations),
	}
}

func iterationFailure(k int, delta float64, cause error) error {
	return &IterationError{
		Iteration: k,
		Delta:     delta,
		Wrapped:   fmt.Errorf("%w: %w", ErrSingularIteration, cause),
	}
}

func relative(change, norm float64) float64 {
	if norm == 0 {
		if change == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return change / norm
}

func checkInputs(A, B, Q, R mat.Matrix) (n, m int, err error) {
	for _, x := range []mat.Matrix{A, B, Q, R} {
		if x == nil {
			return 0, 0, fmt.Errorf("%w: nil matrix", ErrDimensionMismatch)
		}
	}

	ar, ac := A.Dims()
	br, bc := B.Dims()
	qr, qc := Q.Dims()
	rr, rc := R.Dims()

	switch {
	case ar == 0 || bc == 0:
		return 0, 0, fmt.Errorf("%w: empty matrix", ErrDimensionMismatch)
	case ar != ac:
		return 0, 0, fmt.Errorf("%w: A is %dx%d", ErrDimensionMismatch, ar, ac)
	case br != ar:
		return 0, 0, fmt.Errorf("%w: B is %dx%d for %d states", ErrDimensionMismatch, br, bc, ar)
	case qr != ar || qc != ar:
		return 0, 0, fmt.Errorf("%w: Q is %dx%d for %d states", ErrDimensionMismatch, qr, qc, ar)
	case rr != bc || rc != bc:
		return 0, 0, fmt.Errorf("%w: R is %dx%d for %d inputs", ErrDimensionMismatch, rr, rc, bc)
	}

	for name, x := range map[string]mat.Matrix{"A": A, "B": B, "Q": Q, "R": R} {
		if !linalg.IsFinite(x) {
			return 0, 0, fmt.Errorf("%w: %s", ErrNonFiniteInput, name)
		}
	}
	return ar, bc, nil
}
