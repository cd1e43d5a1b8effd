package sim

import (
	"context"
	"errors"
	"math"
	"testing"
)

type testDynamics struct{}

func (t *testDynamics) Derivative(x State, u Control, time float64) State {
	return State{-x[0]}
}

func (t *testDynamics) StateDim() int   { return 1 }
func (t *testDynamics) ControlDim() int { return 0 }

type testIntegrator struct{}

func (t *testIntegrator) Step(dyn Dynamics, x State, u Control, time float64, dt float64) State {
	dx := dyn.Derivative(x, u, time)
	return State{x[0] + dt*dx[0]}
}

type testController struct{}

func (t *testController) Compute(x State, time float64) Control {
	return Control{}
}

func TestSimulatorRun(t *testing.T) {
	dyn := &testDynamics{}
	integ := &testIntegrator{}
	ctrl := &testController{}

	sim := New(dyn, integ, ctrl)

	cfg := Config{
		Dt:       0.1,
		Duration: 1.0,
	}

	x0 := State{1.0}
	result, err := sim.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}

	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}

	finalState := result.States[len(result.States)-1][0]
	expected := 1.0 * math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	dyn := &testDynamics{}
	integ := &testIntegrator{}
	ctrl := &testController{}

	sim := New(dyn, integ, ctrl)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x0 := State{1.0}
			_, err := sim.Run(context.Background(), x0, tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, u Control, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	dyn := &testDynamics{}
	integ := &testIntegrator{}
	ctrl := &testController{}

	sim := New(dyn, integ, ctrl)

	metric := &testMetric{}
	sim.AddMetric(metric)

	cfg := Config{Dt: 0.1, Duration: 1.0}
	x0 := State{1.0}

	result, err := sim.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestSimulatorSubstepsImproveAccuracy(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})
	x0 := State{1.0}
	exact := math.Exp(-1.0)

	coarse, err := sim.Run(context.Background(), x0, Config{Dt: 0.1, Duration: 1.0, Substeps: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	fine, err := sim.Run(context.Background(), x0, Config{Dt: 0.1, Duration: 1.0, Substeps: 20})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	errCoarse := math.Abs(coarse.States[10][0] - exact)
	errFine := math.Abs(fine.States[10][0] - exact)
	if errFine >= errCoarse {
		t.Errorf("substeps should reduce error: coarse %.6f, fine %.6f", errCoarse, errFine)
	}
	if len(fine.States) != 11 {
		t.Errorf("substeps must not change the sample count, got %d states", len(fine.States))
	}
}

type holdController struct{ calls int }

func (h *holdController) Compute(x State, time float64) Control {
	h.calls++
	return Control{0}
}

func TestSimulatorSamplesControllerOncePerPeriod(t *testing.T) {
	ctrl := &holdController{}
	sim := New(&testDynamics{}, &testIntegrator{}, ctrl)

	if _, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0, Substeps: 5}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if ctrl.calls != 10 {
		t.Errorf("expected 10 controller samples, got %d", ctrl.calls)
	}
}

type explodingDynamics struct{}

func (e *explodingDynamics) Derivative(x State, u Control, time float64) State {
	return State{x[0] * 1e300}
}
func (e *explodingDynamics) StateDim() int   { return 1 }
func (e *explodingDynamics) ControlDim() int { return 0 }

func TestSimulatorStopsOnDivergence(t *testing.T) {
	sim := New(&explodingDynamics{}, &testIntegrator{}, &testController{})
	cfg := Config{Dt: 0.1, Duration: 10.0, ValidateState: true}

	result, err := sim.Run(context.Background(), State{1e10}, cfg)
	var simErr SimError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimError, got %v", err)
	}
	if result == nil || len(result.States) > 100 {
		t.Errorf("expected a partial result")
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSimulatorRejectsWrongStateSize(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})
	if _, err := sim.Run(context.Background(), State{1, 2}, Config{Dt: 0.1, Duration: 1.0}); err == nil {
		t.Error("expected error for mismatched initial state")
	}
}

type recordingObserver struct {
	times []float64
}

func (o *recordingObserver) OnStep(x State, u Control, t float64) {
	o.times = append(o.times, t)
}

func TestSimulatorObservers(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})
	obs := &recordingObserver{}
	sim.AddObserver(obs)

	if _, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 0.5}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(obs.times) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(obs.times))
	}
	for i, tm := range obs.times {
		if math.Abs(tm-0.1*float64(i)) > 1e-12 {
			t.Errorf("sample %d at t=%f", i, tm)
		}
	}
}
