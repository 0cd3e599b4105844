package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nash169/RoboBrain/internal/config"
	"github.com/nash169/RoboBrain/internal/dynamo"
)

const trialsDB = "trials.db"

var (
	logger  *zap.Logger
	verbose bool
	dataDir string

	dt          float64
	duration    float64
	seed        int64
	integrator  string
	roll        float64
	holdTime    float64
	startupHold float64
	warmup      float64
	noNetwork   bool
	rank        int
	size        int
	configFile  string
	preset      string
	runName     string
	pngDir      string
	feedEvery   int

	outFile string
	xAxis   int
	yAxis   int
	column  string
)

func main() {
	rootCmd := newRootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "robobrain",
		Short: "robobee flight simulator with a spiking learning agent in the loop",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".robobrain", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&pngDir, "png", "", "also write the standard figures into this directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with a live terminal monitor",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&feedEvery, "every", 20, "forward every nth tick to the monitor")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a state signal",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "signal", "roll", "state column to analyze")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", dynamo.Roll, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", dynamo.RollRate, "state index for y-axis")

	trialsCmd := &cobra.Command{
		Use:   "trials [run_id]",
		Short: "list the trials of a run, or summarize every run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listTrials,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (stdout when empty)")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "write the standard figures of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output directory (the run directory when empty)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, phaseCmd, trialsCmd, exportJSONCmd, exportPNGCmd, presetsCmd, newSweepCmd())
	return rootCmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "fast timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().Float64Var(&roll, "roll", 0, "initial roll angle")
	cmd.Flags().Float64Var(&holdTime, "hold", 0.2, "hold duration after a violation")
	cmd.Flags().Float64Var(&startupHold, "startup-hold", 0, "hold before the first trial")
	cmd.Flags().Float64Var(&warmup, "warmup", 1.0, "time before the agent receives state")
	cmd.Flags().BoolVar(&noNetwork, "no-network", false, "keep the feedback roll torque")
	cmd.Flags().IntVar(&rank, "rank", 0, "process rank")
	cmd.Flags().IntVar(&size, "size", 1, "process count")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&runName, "name", "", "run name")
}

// buildConfig resolves the run configuration: preset, then config file,
// then explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("roll") && len(cfg.Initial) > dynamo.Roll {
		cfg.Initial[dynamo.Roll] = roll
	}
	if flags.Changed("hold") {
		cfg.Trial.HoldDuration = holdTime
	}
	if flags.Changed("startup-hold") {
		cfg.Trial.StartupHold = startupHold
	}
	if flags.Changed("warmup") {
		cfg.Bridge.Warmup = warmup
	}
	if flags.Changed("no-network") {
		cfg.Trial.NetworkControl = !noNetwork
	}
	if flags.Changed("rank") {
		cfg.Comm.Rank = rank
	}
	if flags.Changed("size") {
		cfg.Comm.Size = size
	}
	return cfg, nil
}
