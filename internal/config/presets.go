package config

import (
	"sort"

	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/plant"
)

var Presets = map[string]*Config{
	"drivetrain":        drivetrain(),
	"double_integrator": doubleIntegrator(),
	"pendulum": withDefaults(Config{
		Name:    "pendulum",
		Model:   "pendulum",
		Dt:      0.01,
		Weights: WeightsConfig{Q: eye(2, 10), R: [][]float64{{1}}},
		Sim:     SimConfig{Duration: 5, InitState: []float64{0.2, 0}},
	}),
	"cartpole": withDefaults(Config{
		Name:  "cartpole",
		Model: "cartpole",
		Dt:    0.01,
		Weights: WeightsConfig{Bryson: &BrysonConfig{
			States: []float64{0.5, 1, 0.1, 1},
			Inputs: []float64{20},
		}},
		Sim: SimConfig{Duration: 8, InitState: []float64{0, 0, 0.1, 0}, InputLimits: []float64{20}},
	}),
	"spring_mass": withDefaults(Config{
		Name:    "spring_mass",
		Model:   "spring_mass",
		Dt:      0.02,
		Weights: WeightsConfig{Q: eye(6, 1), R: [][]float64{{0.1}}},
		Sim:     SimConfig{Duration: 10, InitState: []float64{0.5, 0, 0, 0, 0, 0}},
	}),
}

// drivetrain is the differential-drive plant at 2 m/s, sampled at 200 Hz
// with the wheel voltages limited to 12 V.
func drivetrain() *Config {
	p := plant.Drivetrain(2.0)
	return withDefaults(Config{
		Name: "drivetrain",
		Dt:   p.Dt,
		Plant: PlantConfig{
			A: linalg.ToRows(p.Model.A),
			B: linalg.ToRows(p.Model.B),
		},
		Weights: WeightsConfig{Bryson: &BrysonConfig{
			States: []float64{0.0625, 0.125, 2.5, 0.95, 0.95},
			Inputs: []float64{12, 12},
		}},
		Sim: SimConfig{
			Duration:    3,
			InitState:   []float64{0.2, 0.1, 0.3, 0, 0},
			InputLimits: []float64{12, 12},
		},
	})
}

func doubleIntegrator() *Config {
	p := plant.DoubleIntegrator()
	return withDefaults(Config{
		Name:    "double_integrator",
		Dt:      p.Dt,
		Plant:   PlantConfig{A: linalg.ToRows(p.Model.A), B: linalg.ToRows(p.Model.B)},
		Weights: WeightsConfig{Q: linalg.ToRows(p.Weights.Q), R: linalg.ToRows(p.Weights.R)},
		Sim:     SimConfig{Duration: 10, InitState: []float64{1, 0}},
	})
}

func withDefaults(c Config) *Config {
	d := DefaultConfig()
	if c.Integrator == "" {
		c.Integrator = d.Integrator
	}
	if c.Solver == (SolverConfig{}) {
		c.Solver = d.Solver
	}
	if c.Sim.Substeps == 0 {
		c.Sim.Substeps = d.Sim.Substeps
	}
	return &c
}

func eye(n int, scale float64) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		rows[i][i] = scale
	}
	return rows
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
