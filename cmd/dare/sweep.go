package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/integrators"
	"github.com/san-kum/dare/internal/lqr"
	"github.com/san-kum/dare/internal/optim"
	"github.com/san-kum/dare/internal/sim"
	"github.com/san-kum/dare/internal/viz"
)

// sweepMetrics are the metrics sweep can rank by, mapped to whether larger
// values are better.
var sweepMetrics = map[string]bool{
	"lqr_cost":       false,
	"control_effort": false,
	"peak_control":   false,
	"settling_time":  false,
	"stability":      true,
}

func sweepMetricNames() []string {
	names := make([]string, 0, len(sweepMetrics))
	for name := range sweepMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runSweep scales Q and R over powers of two and ranks the closed-loop runs.
// Cost is always measured with the unscaled weights, so lqr_cost is lowest
// where the scales agree.
func runSweep(cmd *cobra.Command, args []string) error {
	if sweepLo > sweepHi {
		return fmt.Errorf("--from %d is above --to %d", sweepLo, sweepHi)
	}
	maximize, ok := sweepMetrics[metricName]
	if !ok {
		return fmt.Errorf("unknown metric: %s (available: %v)", metricName, sweepMetricNames())
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.Problem()
	if err != nil {
		return err
	}
	n, _ := base.Model.Dims()
	x0, err := cfg.InitState(n)
	if err != nil {
		return err
	}
	if _, err := integrators.Get(cfg.Integrator); err != nil {
		return err
	}
	dyn, simCfg := cfg.Dynamics(base), cfg.SimConfig()
	opts := solverOptions(cfg)

	eval := func(ctx context.Context, params map[string]float64) (*sim.Result, error) {
		p := base
		var q, r mat.Dense
		q.Scale(params["q_scale"], base.Weights.Q)
		r.Scale(params["r_scale"], base.Weights.R)
		p.Weights.Q, p.Weights.R = &q, &r

		d, err := lqr.Design(p, opts...)
		if err != nil {
			return nil, err
		}
		integ, err := integrators.Get(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		s := sim.New(dyn, integ, d.Controller().WithLimits(cfg.Sim.InputLimits...))
		for _, metric := range closedLoopMetrics(base.Weights, x0) {
			s.AddMetric(metric)
		}
		return s.Run(ctx, x0, simCfg)
	}

	scales := optim.Powers(2, sweepLo, sweepHi)
	g := optim.NewGridSearch([]string{"q_scale", "r_scale"}, [][]float64{scales, scales})
	if maximize {
		g.Maximize()
	}
	best, points, err := g.Search(cmd.Context(), eval, metricName)
	if err != nil {
		return err
	}
	logger.Info("sweep finished", zap.Int("points", len(points)), zap.Float64("best", best.Value))

	out := cmd.OutOrStdout()
	rows := make([][]string, 0, 10)
	for i, p := range g.Rank(points) {
		if i == 10 {
			break
		}
		value := fmt.Sprintf("%.6g", p.Value)
		if p.Err != nil {
			value = "failed: " + p.Err.Error()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%g", p.Params["q_scale"]),
			fmt.Sprintf("%g", p.Params["r_scale"]),
			value,
		})
	}
	fmt.Fprintln(out, viz.Table([]string{"Q×", "R×", metricName}, rows))
	fmt.Fprintf(out, "\nbest: Q×%g R×%g %s=%.6g (%d points)\n",
		best.Params["q_scale"], best.Params["r_scale"], metricName, best.Value, len(points))
	return nil
}
