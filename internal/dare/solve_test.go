package dare_test

import (
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/dare"
	"github.com/san-kum/dare/internal/discretize"
	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/plant"
)

// closedLoopRadius returns the spectral radius of A − BK with
// K = (R + BᵀSB)⁻¹BᵀSA.
func closedLoopRadius(A, B, R, S mat.Matrix) float64 {
	var BtS, M, BtSA mat.Dense
	BtS.Mul(B.T(), S)
	M.Mul(&BtS, B)
	M.Add(R, &M)
	BtSA.Mul(&BtS, A)

	var K mat.Dense
	Expect(K.Solve(&M, &BtSA)).To(Succeed())

	var BK, cl mat.Dense
	BK.Mul(B, &K)
	cl.Sub(A, &BK)

	rho, err := linalg.SpectralRadius(&cl)
	Expect(err).NotTo(HaveOccurred())
	return rho
}

func drivetrain() (A, B, Q, R *mat.Dense) {
	p := plant.Drivetrain(2.0)
	d, err := discretize.Discretize(p.Model.A, p.Model.B, p.Dt)
	Expect(err).NotTo(HaveOccurred())
	return d.A, d.B, p.Weights.Q, p.Weights.R
}

var _ = Describe("Solve", func() {
	Context("with the drivetrain plant", func() {
		var (
			A, B, Q, R *mat.Dense
			sol        *dare.Solution
		)

		BeforeEach(func() {
			A, B, Q, R = drivetrain()
			var err error
			sol, err = dare.Solve(A, B, Q, R)
			Expect(err).NotTo(HaveOccurred())
		})

		It("converges quadratically within a handful of iterations", func() {
			Expect(sol.Iterations).To(BeNumerically(">", 0))
			Expect(sol.Iterations).To(BeNumerically("<", 20))
		})

		It("returns a symmetric matrix", func() {
			Expect(linalg.Asymmetry(sol.S)).To(BeNumerically("<=", 1e-9*linalg.Frobenius(sol.S)))
		})

		It("returns a positive semi-definite matrix", func() {
			lo, err := linalg.MinSymEigenvalue(sol.S)
			Expect(err).NotTo(HaveOccurred())
			Expect(lo).To(BeNumerically(">=", -1e-9*linalg.Frobenius(sol.S)))
		})

		It("satisfies the Riccati equation", func() {
			res, err := dare.Residual(A, B, Q, R, sol.S)
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(BeNumerically("<", 1e-8))
			Expect(res).To(BeNumerically("<", 1e-9*linalg.Frobenius(sol.S)))
		})

		It("stabilizes the closed loop", func() {
			Expect(closedLoopRadius(A, B, R, sol.S)).To(BeNumerically("<", 1))
		})

		It("leaves its inputs untouched", func() {
			A2, B2, Q2, R2 := drivetrain()
			Expect(mat.Equal(A, A2)).To(BeTrue())
			Expect(mat.Equal(B, B2)).To(BeTrue())
			Expect(mat.Equal(Q, Q2)).To(BeTrue())
			Expect(mat.Equal(R, R2)).To(BeTrue())
		})
	})

	Context("with scalar problems that have closed-form solutions", func() {
		DescribeTable("matches the positive root",
			func(a, b, q, r, want float64) {
				sol, err := dare.Solve(linalg.Diag(a), linalg.Diag(b), linalg.Diag(q), linalg.Diag(r))
				Expect(err).NotTo(HaveOccurred())
				Expect(sol.S.At(0, 0)).To(BeNumerically("~", want, 1e-9))
			},
			// S² − S − 1 = 0
			Entry("marginally stable plant", 1.0, 1.0, 1.0, 1.0, (1+math.Sqrt(5))/2),
			// S² − 4S − 1 = 0
			Entry("unstable plant", 2.0, 1.0, 1.0, 1.0, 2+math.Sqrt(5)),
			// stable plant without state cost needs no control
			Entry("zero state weight", 0.5, 1.0, 0.0, 1.0, 0.0),
		)
	})

	Context("with tighter tolerance", func() {
		It("still converges and does not take fewer steps", func() {
			A, B, Q, R := drivetrain()
			loose, err := dare.Solve(A, B, Q, R, dare.WithTolerance(1e-6))
			Expect(err).NotTo(HaveOccurred())
			tight, err := dare.Solve(A, B, Q, R, dare.WithTolerance(1e-13))
			Expect(err).NotTo(HaveOccurred())
			Expect(tight.Iterations).To(BeNumerically(">=", loose.Iterations))
		})
	})

	Context("when R is indefinite", func() {
		It("fails with ErrNonPositiveDefiniteR before iterating", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			A, B, Q, _ := drivetrain()
			R := linalg.Diag(0.00694, -0.00694)

			_, err := dare.Solve(A, B, Q, R, dare.WithLogger(zap.New(core)))
			Expect(err).To(MatchError(dare.ErrNonPositiveDefiniteR))
			Expect(logs.FilterMessage("sda iteration").Len()).To(BeZero())
		})
	})

	Context("when W becomes singular", func() {
		It("reports the failing iteration", func() {
			// G₀ = 1 and H₀ = −1 make W = I + G₀H₀ = 0.
			_, err := dare.Solve(linalg.Diag(1), linalg.Diag(1), linalg.Diag(-1), linalg.Diag(1))
			Expect(err).To(MatchError(dare.ErrSingularIteration))

			var iterErr *dare.IterationError
			Expect(errors.As(err, &iterErr)).To(BeTrue())
			Expect(iterErr.Iteration).To(Equal(0))
		})
	})

	Context("when the iteration cap is too low", func() {
		It("fails with ErrNonConvergence instead of looping", func() {
			A, B, Q, R := drivetrain()
			_, err := dare.Solve(A, B, Q, R, dare.WithMaxIterations(1))
			Expect(err).To(MatchError(dare.ErrNonConvergence))

			var iterErr *dare.IterationError
			Expect(errors.As(err, &iterErr)).To(BeTrue())
			Expect(iterErr.Iteration).To(Equal(1))
			Expect(iterErr.Delta).To(BeNumerically(">", 0))
		})
	})

	Context("with malformed input", func() {
		DescribeTable("rejects it",
			func(A, B, Q, R mat.Matrix, want error) {
				_, err := dare.Solve(A, B, Q, R)
				Expect(err).To(MatchError(want))
			},
			Entry("non-square A", linalg.Zeros(2, 3), linalg.Zeros(2, 1), linalg.Identity(2), linalg.Identity(1), dare.ErrDimensionMismatch),
			Entry("B row mismatch", linalg.Identity(2), linalg.Zeros(3, 1), linalg.Identity(2), linalg.Identity(1), dare.ErrDimensionMismatch),
			Entry("Q wrong size", linalg.Identity(2), linalg.Zeros(2, 1), linalg.Identity(3), linalg.Identity(1), dare.ErrDimensionMismatch),
			Entry("R wrong size", linalg.Identity(2), linalg.Zeros(2, 1), linalg.Identity(2), linalg.Identity(2), dare.ErrDimensionMismatch),
			Entry("NaN in A", linalg.Diag(math.NaN(), 1), linalg.Zeros(2, 1), linalg.Identity(2), linalg.Identity(1), dare.ErrNonFiniteInput),
		)
	})

	Context("with invalid options", func() {
		DescribeTable("rejects them",
			func(opt dare.Option) {
				_, err := dare.Solve(linalg.Diag(1), linalg.Diag(1), linalg.Diag(1), linalg.Diag(1), opt)
				Expect(err).To(MatchError(dare.ErrInvalidOption))
			},
			Entry("zero tolerance", dare.WithTolerance(0)),
			Entry("negative tolerance", dare.WithTolerance(-1e-9)),
			Entry("NaN tolerance", dare.WithTolerance(math.NaN())),
			Entry("zero iterations", dare.WithMaxIterations(0)),
		)
	})

	Context("when called concurrently", func() {
		It("produces identical results on every call", func() {
			A, B, Q, R := drivetrain()
			ref, err := dare.Solve(A, B, Q, R)
			Expect(err).NotTo(HaveOccurred())

			var wg sync.WaitGroup
			results := make([]*dare.Solution, 8)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					sol, err := dare.Solve(A, B, Q, R)
					Expect(err).NotTo(HaveOccurred())
					results[i] = sol
				}(i)
			}
			wg.Wait()

			for _, sol := range results {
				Expect(mat.Equal(sol.S, ref.S)).To(BeTrue())
			}
		})
	})
})
