package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/config"
	"github.com/san-kum/dare/internal/dare"
	"github.com/san-kum/dare/internal/discretize"
	"github.com/san-kum/dare/internal/integrators"
	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/lqr"
	"github.com/san-kum/dare/internal/metrics"
	"github.com/san-kum/dare/internal/plant"
	"github.com/san-kum/dare/internal/sim"
	"github.com/san-kum/dare/internal/storage"
	"github.com/san-kum/dare/internal/viz"
)

// loadConfig reads --config or the --preset and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIter
	}
	if flags.Lookup("time") != nil && flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Lookup("integrator") != nil && flags.Changed("integrator") {
		cfg.Integrator = integrator
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func solverOptions(cfg *config.Config) []dare.Option {
	return append(cfg.SolverOptions(), dare.WithLogger(logger))
}

func design(cmd *cobra.Command) (*config.Config, *lqr.Result, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	p, err := cfg.Problem()
	if err != nil {
		return nil, nil, err
	}

	r, err := lqr.Design(p, solverOptions(cfg)...)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("design solved",
		zap.String("problem", p.Name),
		zap.Int("iterations", r.Iterations),
		zap.Duration("elapsed", r.SolveTime),
		zap.Float64("residual", r.Residual),
	)
	if !r.Stable() {
		logger.Warn("closed loop is not stable", zap.Float64("spectral_radius", r.SpectralRadius))
	}
	return cfg, r, nil
}

func settings(cfg *config.Config) storage.SolverSettings {
	s := storage.SolverSettings{
		Tolerance:     cfg.Solver.Tolerance,
		MaxIterations: cfg.Solver.MaxIterations,
	}
	if s.Tolerance == 0 {
		s.Tolerance = dare.DefaultTolerance
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = dare.DefaultMaxIterations
	}
	return s
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, r, err := design(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if jsonOut {
		return storage.ExportJSON(out, r, nil)
	}

	if report {
		fmt.Fprintln(out, viz.Report(r, true))
	} else {
		fmt.Fprintln(out, viz.FormatMatrix(r.S, 6))
		fmt.Fprintf(out, "\nsolved in %d µs (%d iterations)\n", r.SolveTime.Microseconds(), r.Iterations)
	}

	if save {
		runID, err := storage.New(dataDir).Save(r, settings(cfg))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run id: %s\n", runID)
	}
	return nil
}

func runGain(cmd *cobra.Command, args []string) error {
	_, r, err := design(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.FormatMatrix(r.K, 6))

	eig, err := linalg.Eigenvalues(lqr.ClosedLoop(r.Discrete.A, r.Discrete.B, r.K))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nclosed-loop eigenvalues:")
	for _, v := range eig {
		fmt.Fprintf(out, "  %8.5f %+8.5fi  |λ| = %.5f\n", real(v), imag(v), cmplx.Abs(v))
	}
	fmt.Fprintf(out, "spectral radius: %.6f %s\n", r.SpectralRadius, viz.Status(r.Stable(), "stable", "unstable"))
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, r, err := design(cmd)
	if err != nil {
		return err
	}
	p := r.Problem
	n, m := p.Model.Dims()

	x0, err := cfg.InitState(n)
	if err != nil {
		return err
	}
	integ, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return err
	}

	var ctrl sim.Controller = r.Controller().WithLimits(cfg.Sim.InputLimits...)
	if openLoop {
		ctrl = lqr.NewOpenLoop(m)
	}

	simCfg := cfg.SimConfig()
	s := sim.New(cfg.Dynamics(p), integ, ctrl)
	for _, metric := range closedLoopMetrics(p.Weights, x0) {
		s.AddMetric(metric)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		s.AddObserver(newSampleLogger(logger, simCfg))
	}

	start := time.Now()
	result, runErr := s.Run(cmd.Context(), x0, simCfg)
	logger.Info("simulation finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(runErr),
	)
	if result == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := storage.ExportJSON(out, r, result); err != nil {
			return err
		}
		return runErr
	}

	fmt.Fprintln(out, viz.Report(r, false))
	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.PlotResponse(result, plotWidth, 12))
	fmt.Fprintln(out)
	for i := 0; i < m; i++ {
		fmt.Fprintln(out, viz.PlotControls(result, i, plotWidth, 6))
	}

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(out, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %.6f\n", name, result.Metrics[name])
	}
	fmt.Fprintf(out, "  x0ᵀSx0: %.6f\n", quadratic(r, x0))

	if save {
		st := storage.New(dataDir)
		runID, err := st.Save(r, settings(cfg))
		if err != nil {
			return err
		}
		if err := st.SaveTrajectory(runID, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "run id: %s\n", runID)
	}
	return runErr
}

// settleBand is the fraction of the initial state the response must stay
// within to count as settled.
const settleBand = 0.02

// closedLoopMetrics is the metric set simulate reports and sweep ranks by.
// Cost is measured with w regardless of the weights the gain came from.
func closedLoopMetrics(w plant.CostWeights, x0 sim.State) []sim.Metric {
	peak := 0.0
	for _, v := range x0 {
		peak = max(peak, math.Abs(v))
	}
	return []sim.Metric{
		metrics.NewQuadraticCost(w.Q, w.R),
		metrics.NewControlEffort(),
		metrics.NewPeakControl(),
		metrics.NewSettlingTime(settleBand),
		metrics.NewStability(settleBand * peak),
	}
}

// sampleLogger traces the closed loop at debug level, ten times per
// simulated second.
type sampleLogger struct {
	log    *zap.Logger
	stride int
	n      int
}

func newSampleLogger(log *zap.Logger, cfg sim.Config) *sampleLogger {
	return &sampleLogger{log: log, stride: max(1, int(math.Round(0.1/cfg.Dt)))}
}

func (l *sampleLogger) OnStep(x sim.State, u sim.Control, t float64) {
	if l.n%l.stride == 0 {
		l.log.Debug("sample",
			zap.Float64("t", t),
			zap.Float64("norm", x.Norm()),
			zap.Float64s("u", u),
		)
	}
	l.n++
}

// quadratic is the optimal cost-to-go x₀ᵀSx₀ of the linear design.
func quadratic(r *lqr.Result, x0 sim.State) float64 {
	total := 0.0
	for i := range x0 {
		for j := range x0 {
			total += x0[i] * r.S.At(i, j) * x0[j]
		}
	}
	return total
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchRuns < 1 {
		return fmt.Errorf("--runs must be positive, got %d", benchRuns)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Problem()
	if err != nil {
		return err
	}
	d, err := discretize.DiscretizeModel(p.Model, p.Dt)
	if err != nil {
		return err
	}

	opts := solverOptions(cfg)
	lo, total := time.Duration(math.MaxInt64), time.Duration(0)
	iterations := 0
	for i := 0; i < benchRuns; i++ {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		default:
		}
		start := time.Now()
		sol, err := dare.Solve(d.A, d.B, p.Weights.Q, p.Weights.R, opts...)
		elapsed := time.Since(start)
		if err != nil {
			return err
		}
		iterations = sol.Iterations
		total += elapsed
		lo = min(lo, elapsed)
	}

	euler, err := discretize.Euler(p.Model.A, p.Model.B, p.Dt)
	if err != nil {
		return err
	}
	var dA, dB mat.Dense
	dA.Sub(d.A, euler.A)
	dB.Sub(d.B, euler.B)

	n, m := d.Dims()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "benchmarking %s (%d states, %d inputs)\n", p.Name, n, m)
	fmt.Fprintf(out, "runs: %d\n", benchRuns)
	fmt.Fprintf(out, "iterations: %d\n", iterations)
	fmt.Fprintf(out, "mean: %.1f µs\n", float64(total.Nanoseconds())/float64(benchRuns)/1e3)
	fmt.Fprintf(out, "min: %.1f µs\n", float64(lo.Nanoseconds())/1e3)
	fmt.Fprintf(out, "euler vs exact: ‖ΔA‖ = %.3e, ‖ΔB‖ = %.3e\n", linalg.Frobenius(&dA), linalg.Frobenius(&dB))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0)
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		p, err := cfg.Problem()
		if err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		n, m := p.Model.Dims()
		source := "plant"
		if cfg.Model != "" {
			source = "model " + cfg.Model
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d×%d", n, m), fmt.Sprintf("%g", cfg.Dt), source})
	}
	fmt.Fprintln(out, viz.Table([]string{"PRESET", "N×M", "DT", "SOURCE"}, rows))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Problem,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", run.Iterations),
			fmt.Sprintf("%d µs", run.ElapsedMicros),
			fmt.Sprintf("%.4f", run.SpectralRadius),
			response(st, run.ID),
		})
	}
	fmt.Fprintln(out, viz.Table([]string{"ID", "PROBLEM", "TIME", "ITER", "SOLVE", "ρ", "‖x‖"}, rows))
	return nil
}

// response is a sparkline of ‖x‖ for a run saved with its trajectory.
func response(st *storage.Store, runID string) string {
	states, _, err := st.LoadStates(runID)
	if err != nil || len(states) == 0 {
		return "-"
	}
	norms := make([]float64, len(states))
	for i, x := range states {
		norms[i] = sim.State(x).Norm()
	}
	return viz.Sparkline(norms, 20)
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	S, err := st.LoadMatrix(runID, storage.Solution)
	if err != nil {
		return err
	}
	K, err := st.LoadMatrix(runID, storage.Gain)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "problem: %s (%d states, %d inputs, dt %g)\n", meta.Problem, meta.States, meta.Inputs, meta.Dt)
	fmt.Fprintf(out, "solver: tol %g, cap %d\n", meta.Solver.Tolerance, meta.Solver.MaxIterations)
	fmt.Fprintf(out, "iterations: %d in %d µs, residual %.3e, ρ %.6f\n",
		meta.Iterations, meta.ElapsedMicros, meta.Residual, meta.SpectralRadius)
	fmt.Fprintf(out, "\nS\n%s\n\nK\n%s\n", viz.FormatMatrix(S, 6), viz.FormatMatrix(K, 6))

	states, _, err := st.LoadStates(runID)
	if err == nil && len(states) > 0 {
		result := &sim.Result{Times: make([]float64, len(states))}
		for i, x := range states {
			result.States = append(result.States, x)
			result.Times[i] = float64(i) * meta.Dt
		}
		fmt.Fprintf(out, "\n%s\n", viz.PlotResponse(result, 80, 10))
	}
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s from preset %s\n", path, preset)
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Problem()
	if err != nil {
		return err
	}
	n, _ := p.Model.Dims()
	x0, err := cfg.InitState(n)
	if err != nil {
		return err
	}
	integ, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return err
	}

	tuner := viz.NewTuner(p, cfg.Dynamics(p), integ, x0, cfg.SimConfig(), solverOptions(cfg)...)
	final, err := tea.NewProgram(tuner, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	if err != nil {
		return err
	}
	if d := final.(*viz.Tuner).Design(); d != nil {
		fmt.Fprintln(cmd.OutOrStdout(), viz.Report(d, false))
		logTuned(d.Problem)
	}
	return nil
}

func logTuned(p plant.Problem) {
	logger.Info("tuned weights",
		zap.Float64("q00", p.Weights.Q.At(0, 0)),
		zap.Float64("r00", p.Weights.R.At(0, 0)),
	)
}
