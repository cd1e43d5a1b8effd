package plant

import "github.com/san-kum/dare/internal/linalg"

// DrivetrainDt is the 200 Hz control period the drivetrain weights are tuned for.
const DrivetrainDt = 0.005

// Drivetrain is the linearized differential-drive model with states
// [x, y, heading, left velocity, right velocity] and inputs
// [left voltage, right voltage], linearized about forward speed velocity.
// The lateral position only couples to heading when velocity is non-zero,
// so velocity must be non-zero for the problem to be stabilizable.
func Drivetrain(velocity float64) Problem {
	a := linalg.FromRows([][]float64{
		{0, 0, 0, 0.5, 0.5},
		{0, 0, velocity, 0, 0},
		{0, 0, 0, -1.1111111111111112, 1.1111111111111112},
		{0, 0, 0, -10.486221508345572, 5.782171664108812},
		{0, 0, 0, 5.782171664108812, -10.486221508345572},
	})
	b := linalg.FromRows([][]float64{
		{0, 0},
		{0, 0},
		{0, 0},
		{6.664631384780125, -5.106998986026231},
		{-5.106998986026231, 6.664631384780125},
	})

	// x, y within 0.0625 m and 0.125 m, heading within 2.5 rad, wheel speeds
	// within 0.95 m/s, 12 V per side.
	w, _ := Bryson([]float64{0.0625, 0.125, 2.5, 0.95, 0.95}, []float64{12, 12})

	return Problem{
		Name:    "drivetrain",
		Model:   StateSpaceModel{A: a, B: b},
		Weights: w,
		Dt:      DrivetrainDt,
	}
}

// DoubleIntegrator is ẍ = u with Q = I and R = 1.
func DoubleIntegrator() Problem {
	return Problem{
		Name: "double_integrator",
		Model: StateSpaceModel{
			A: linalg.FromRows([][]float64{{0, 1}, {0, 0}}),
			B: linalg.FromRows([][]float64{{0}, {1}}),
		},
		Weights: CostWeights{Q: linalg.Identity(2), R: linalg.Diag(1)},
		Dt:      0.01,
	}
}
