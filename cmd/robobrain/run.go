package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nash169/RoboBrain/internal/config"
	"github.com/nash169/RoboBrain/internal/experiment"
	"github.com/nash169/RoboBrain/internal/sim"
	"github.com/nash169/RoboBrain/internal/storage"
	"github.com/nash169/RoboBrain/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg, logger)
	if err != nil {
		return err
	}
	c := exp.Config()

	fmt.Printf("running robobee simulation (%.2fs, network control %v)...\n", c.Duration, c.Trial.NetworkControl)
	start := time.Now()

	result, runErr := exp.Run(cmd.Context())
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	runID, err := saveRun(cmd.Context(), st, c, result)
	if err != nil {
		return err
	}

	if pngDir != "" {
		written, err := writeFigures(st, runID, pngDir)
		if err != nil {
			return err
		}
		logger.Info("figures written", zap.String("dir", pngDir), zap.Int("count", len(written)))
	}

	fmt.Printf("completed in %v\n", elapsed)
	printSummary(runID, result)
	return runErr
}

// saveRun stores the run files and appends its trials to the shared log.
func saveRun(ctx context.Context, st *storage.Store, c config.Config, result *sim.Result) (string, error) {
	meta := storage.RunMetadata{
		Name:           runName,
		Seed:           c.Seed,
		Dt:             c.Dt,
		SlowPeriod:     c.Bridge.SlowPeriod,
		Duration:       c.Duration,
		Integrator:     c.Integrator,
		NetworkControl: c.Trial.NetworkControl,
		TiltBound:      c.Envelope.Tilt,
		RateBound:      c.Envelope.Rate,
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return "", err
	}

	log := storage.NewTrialLog(filepath.Join(st.Dir(), trialsDB))
	defer log.Close()
	if err := log.Init(ctx); err != nil {
		return runID, err
	}
	if err := log.Append(ctx, runID, result.Trials); err != nil {
		return runID, err
	}
	logger.Debug("run stored", zap.String("run_id", runID), zap.Int("trials", len(result.Trials)))
	return runID, nil
}

func printSummary(runID string, result *sim.Result) {
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", len(result.Records))
	fmt.Printf("trials: %d\n", len(result.Trials))
	fmt.Printf("exchanges: %d\n", result.Exchanges)
	fmt.Println("\nmetrics:")

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// Info lines would tear the terminal UI.
	quiet := logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	exp, err := experiment.New(cfg, quiet)
	if err != nil {
		return err
	}
	c := exp.Config()

	title := "robobee"
	if preset != "" {
		title += " · " + preset
	}
	p := tea.NewProgram(viz.NewMonitor(title, c.Duration))
	exp.AddObserver(viz.NewFeed(p, feedEvery))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		result *sim.Result
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		result, runErr = exp.Run(ctx)
		p.Send(viz.DoneMsg{Result: result, Err: runErr})
	}()

	_, err = p.Run()
	cancel()
	<-done
	if err != nil {
		return err
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Println("run interrupted, nothing stored")
			return nil
		}
		return runErr
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := saveRun(cmd.Context(), st, c, result)
	if err != nil {
		return err
	}
	printSummary(runID, result)
	return nil
}
