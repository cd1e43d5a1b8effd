// Package config reads and writes YAML problem files.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dare/internal/dare"
	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/models"
	"github.com/san-kum/dare/internal/plant"
	"github.com/san-kum/dare/internal/sim"
)

const (
	DefaultDt         = 0.01
	DefaultDuration   = 5.0
	DefaultSubsteps   = 10
	DefaultIntegrator = "rk4"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Name       string        `yaml:"name"`
	Model      string        `yaml:"model,omitempty"`
	Integrator string        `yaml:"integrator"`
	Dt         float64       `yaml:"dt"`
	Plant      PlantConfig   `yaml:"plant,omitempty"`
	Weights    WeightsConfig `yaml:"weights"`
	Solver     SolverConfig  `yaml:"solver"`
	Sim        SimConfig     `yaml:"sim"`
}

// PlantConfig is an explicit continuous-time model. It is ignored when a
// named nonlinear model is set.
type PlantConfig struct {
	A [][]float64 `yaml:"a,flow,omitempty"`
	B [][]float64 `yaml:"b,flow,omitempty"`
}

// WeightsConfig holds either explicit Q and R or Bryson excursions.
type WeightsConfig struct {
	Q      [][]float64   `yaml:"q,flow,omitempty"`
	R      [][]float64   `yaml:"r,flow,omitempty"`
	Bryson *BrysonConfig `yaml:"bryson,omitempty"`
}

type BrysonConfig struct {
	States []float64 `yaml:"states,flow"`
	Inputs []float64 `yaml:"inputs,flow"`
}

// SolverConfig fields left at zero fall back to the solver defaults.
type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
}

type SimConfig struct {
	Duration    float64   `yaml:"duration"`
	Substeps    int       `yaml:"substeps"`
	InitState   []float64 `yaml:"init_state,flow,omitempty"`
	InputLimits []float64 `yaml:"input_limits,flow,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: DefaultIntegrator,
		Dt:         DefaultDt,
		Solver: SolverConfig{
			Tolerance:     dare.DefaultTolerance,
			MaxIterations: dare.DefaultMaxIterations,
		},
		Sim: SimConfig{
			Duration: DefaultDuration,
			Substeps: DefaultSubsteps,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that can be checked without building matrices.
// Shape agreement between the plant and its weights is checked by Problem.
func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidConfig, c.Dt)
	}

	hasPlant := len(c.Plant.A) > 0 || len(c.Plant.B) > 0
	switch {
	case c.Model != "" && hasPlant:
		return fmt.Errorf("%w: set either model or plant, not both", ErrInvalidConfig)
	case c.Model == "" && !hasPlant:
		return fmt.Errorf("%w: one of model or plant is required", ErrInvalidConfig)
	case c.Model != "":
		if _, err := models.Get(c.Model); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	default:
		if err := checkRows("plant.a", c.Plant.A); err != nil {
			return err
		}
		if err := checkRows("plant.b", c.Plant.B); err != nil {
			return err
		}
	}

	w := c.Weights
	explicit := len(w.Q) > 0 || len(w.R) > 0
	switch {
	case w.Bryson != nil && explicit:
		return fmt.Errorf("%w: set either weights.q/r or weights.bryson, not both", ErrInvalidConfig)
	case w.Bryson == nil && !explicit:
		return fmt.Errorf("%w: weights are required", ErrInvalidConfig)
	case explicit:
		if err := checkRows("weights.q", w.Q); err != nil {
			return err
		}
		if err := checkRows("weights.r", w.R); err != nil {
			return err
		}
	}

	if !(c.Solver.Tolerance >= 0) || math.IsInf(c.Solver.Tolerance, 1) {
		return fmt.Errorf("%w: solver.tolerance must be finite and not negative, got %v", ErrInvalidConfig, c.Solver.Tolerance)
	}
	if c.Solver.MaxIterations < 0 {
		return fmt.Errorf("%w: solver.max_iterations must not be negative", ErrInvalidConfig)
	}
	if !(c.Sim.Duration >= 0) || c.Sim.Substeps < 0 {
		return fmt.Errorf("%w: sim.duration and sim.substeps must not be negative", ErrInvalidConfig)
	}
	return nil
}

func checkRows(field string, rows [][]float64) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, field)
	}
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrInvalidConfig, field, i, len(row), len(rows[0]))
		}
	}
	return nil
}

// Problem builds the design problem, linearizing the named model if set.
func (c *Config) Problem() (plant.Problem, error) {
	if err := c.Validate(); err != nil {
		return plant.Problem{}, err
	}

	var (
		model plant.StateSpaceModel
		err   error
	)
	if c.Model != "" {
		m, _ := models.Get(c.Model)
		model = m.Linearize()
	} else {
		model, err = plant.NewStateSpaceModel(linalg.FromRows(c.Plant.A), linalg.FromRows(c.Plant.B))
		if err != nil {
			return plant.Problem{}, err
		}
	}

	var w plant.CostWeights
	if c.Weights.Bryson != nil {
		w, err = plant.Bryson(c.Weights.Bryson.States, c.Weights.Bryson.Inputs)
	} else {
		w, err = plant.NewCostWeights(linalg.FromRows(c.Weights.Q), linalg.FromRows(c.Weights.R))
	}
	if err != nil {
		return plant.Problem{}, err
	}

	name := c.Name
	if name == "" {
		name = c.Model
	}
	p := plant.Problem{Name: name, Model: model, Weights: w, Dt: c.Dt}
	if err := p.Validate(); err != nil {
		return plant.Problem{}, err
	}
	return p, nil
}

// SolverOptions converts the solver section into per-call options.
func (c *Config) SolverOptions() []dare.Option {
	var opts []dare.Option
	if c.Solver.Tolerance > 0 {
		opts = append(opts, dare.WithTolerance(c.Solver.Tolerance))
	}
	if c.Solver.MaxIterations > 0 {
		opts = append(opts, dare.WithMaxIterations(c.Solver.MaxIterations))
	}
	return opts
}

// Dynamics returns the plant to simulate: the nonlinear model when one is
// named, the linear model otherwise.
func (c *Config) Dynamics(p plant.Problem) sim.Dynamics {
	if c.Model != "" {
		if m, err := models.Get(c.Model); err == nil {
			return m
		}
	}
	return models.NewLinear(p.Model)
}

// SimConfig returns the closed-loop run settings, sampled at the design dt.
func (c *Config) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Dt = c.Dt
	if c.Sim.Duration > 0 {
		cfg.Duration = c.Sim.Duration
	}
	if c.Sim.Substeps > 0 {
		cfg.Substeps = c.Sim.Substeps
	}
	return cfg
}

// InitState returns the configured initial state, or a 0.1 offset in the
// first state when none is set.
func (c *Config) InitState(n int) (sim.State, error) {
	if len(c.Sim.InitState) == 0 {
		x := make(sim.State, n)
		x[0] = 0.1
		return x, nil
	}
	if len(c.Sim.InitState) != n {
		return nil, fmt.Errorf("%w: sim.init_state has %d entries for %d states", ErrInvalidConfig, len(c.Sim.InitState), n)
	}
	return append(sim.State(nil), c.Sim.InitState...), nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Plant.A = cloneRows(c.Plant.A)
	out.Plant.B = cloneRows(c.Plant.B)
	out.Weights.Q = cloneRows(c.Weights.Q)
	out.Weights.R = cloneRows(c.Weights.R)
	if c.Weights.Bryson != nil {
		out.Weights.Bryson = &BrysonConfig{
			States: append([]float64(nil), c.Weights.Bryson.States...),
			Inputs: append([]float64(nil), c.Weights.Bryson.Inputs...),
		}
	}
	out.Sim.InitState = append([]float64(nil), c.Sim.InitState...)
	out.Sim.InputLimits = append([]float64(nil), c.Sim.InputLimits...)
	return &out
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
