package dare_test

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dare/internal/dare"
	"github.com/san-kum/dare/internal/linalg"
)

func TestResidualScalar(t *testing.T) {
	phi := (1 + math.Sqrt(5)) / 2
	one := linalg.Diag(1)

	tests := []struct {
		name    string
		s       float64
		wantMin float64
		wantMax float64
	}{
		{"exact root", phi, 0, 1e-12},
		{"perturbed", phi + 0.1, 1e-3, math.Inf(1)},
		{"zero", 0, 0.99, 1.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := dare.Residual(one, one, one, one, linalg.Diag(tt.s))
			if err != nil {
				t.Fatalf("Residual: %v", err)
			}
			if res < tt.wantMin || res > tt.wantMax {
				t.Errorf("Residual = %g, want in [%g, %g]", res, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestResidualShape(t *testing.T) {
	one := linalg.Diag(1)
	_, err := dare.Residual(one, one, one, one, linalg.Identity(2))
	if !errors.Is(err, dare.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestIterationErrorMessage(t *testing.T) {
	err := &dare.IterationError{Iteration: 7, Delta: 0.5, Wrapped: dare.ErrSingularIteration}
	if !errors.Is(err, dare.ErrSingularIteration) {
		t.Error("IterationError should unwrap to its cause")
	}
	if got := err.Error(); got != "dare: singular matrix during iteration (iteration 7, relative change 0.5)" {
		t.Errorf("Error() = %q", got)
	}
}
