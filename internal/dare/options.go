package dare

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

const (
	// DefaultTolerance is the relative convergence threshold ε in
	// ‖Hₖ₊₁ − Hₖ‖_F ≤ ε‖Hₖ₊₁‖_F.
	DefaultTolerance = 1e-10

	// DefaultMaxIterations bounds the doubling loop. Well-posed problems
	// converge in well under 20 steps.
	DefaultMaxIterations = 100
)

// Options are the per-call solver settings.
type Options struct {
	Tolerance     float64
	MaxIterations int
	Logger        *zap.Logger
}

// Option configures a single Solve call.
type Option func(*Options)

// DefaultOptions returns the settings used when no Option is given.
func DefaultOptions() Options {
	return Options{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Logger:        zap.NewNop(),
	}
}

// WithTolerance sets the relative convergence threshold.
func WithTolerance(eps float64) Option {
	return func(o *Options) { o.Tolerance = eps }
}

// WithMaxIterations sets the iteration cap.
func WithMaxIterations(n int) Option {
	return func(o *Options) { o.MaxIterations = n }
}

// WithLogger routes per-iteration debug output to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func (o Options) validate() error {
	if !(o.Tolerance > 0) || math.IsInf(o.Tolerance, 0) {
		return fmt.Errorf("%w: tolerance %v", ErrInvalidOption, o.Tolerance)
	}
	if o.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations %d", ErrInvalidOption, o.MaxIterations)
	}
	return nil
}
