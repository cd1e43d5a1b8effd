package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	dt         float64
	tolerance  float64
	maxIter    int
	duration   float64
	integrator string
	save       bool
	jsonOut    bool
	report     bool
	openLoop   bool
	benchRuns  int
	plotWidth  int
	metricName string
	sweepLo    int
	sweepHi    int

	logger = zap.NewNop()
)

// main registers the commands and runs the root command, exiting with
// status 1 on error.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "dare",
		Short:        "discrete-time LQR design with the structure-preserving doubling algorithm",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := buildLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dare", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every solver iteration")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve the DARE for a problem and print S",
		RunE:  runSolve,
	}
	problemFlags(solveCmd)
	solveCmd.Flags().BoolVar(&save, "save", false, "persist the run under --data")
	solveCmd.Flags().BoolVar(&jsonOut, "json", false, "print the design as JSON")
	solveCmd.Flags().BoolVar(&report, "report", false, "print the full design report")

	gainCmd := &cobra.Command{
		Use:   "gain",
		Short: "print the optimal feedback gain K",
		RunE:  runGain,
	}
	problemFlags(gainCmd)

	simCmd := &cobra.Command{
		Use:   "simulate",
		Short: "design a regulator and simulate the closed loop",
		RunE:  runSimulate,
	}
	problemFlags(simCmd)
	simCmd.Flags().Float64Var(&duration, "time", 0, "duration (default from config)")
	simCmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, rk4)")
	simCmd.Flags().BoolVar(&openLoop, "open-loop", false, "simulate without feedback")
	simCmd.Flags().BoolVar(&save, "save", false, "persist the design and trajectory under --data")
	simCmd.Flags().BoolVar(&jsonOut, "json", false, "print the design and trajectory as JSON")
	simCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time repeated solves of a problem",
		RunE:  runBench,
	}
	problemFlags(benchCmd)
	benchCmd.Flags().IntVarP(&benchRuns, "runs", "n", 100, "number of solves")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in problems",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a problem file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "drivetrain", "preset to start from")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "tune Q and R interactively",
		RunE:  runTune,
	}
	problemFlags(tuneCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search Q and R scales for the best closed-loop metric",
		RunE:  runSweep,
	}
	problemFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&metricName, "metric", "lqr_cost", "metric to rank by (lqr_cost, control_effort, peak_control, settling_time, stability)")
	sweepCmd.Flags().IntVar(&sweepLo, "from", -4, "lowest power of two to scale by")
	sweepCmd.Flags().IntVar(&sweepHi, "to", 4, "highest power of two to scale by")
	sweepCmd.Flags().Float64Var(&duration, "time", 0, "duration (default from config)")

	rootCmd.AddCommand(solveCmd, gainCmd, simCmd, benchCmd, presetsCmd, listCmd, showCmd, initCmd, tuneCmd, sweepCmd)
	return rootCmd
}

func problemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "problem file (yaml)")
	cmd.Flags().StringVarP(&preset, "preset", "p", "drivetrain", "built-in problem when no --config is given")
	cmd.Flags().Float64Var(&dt, "dt", 0, "override the sample period")
	cmd.Flags().Float64Var(&tolerance, "tol", 0, "override the relative convergence tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", 0, "override the iteration cap")
}

// buildLogger is replaced in tests.
var buildLogger = newLogger

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopmentConfig().Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}
