package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nash169/RoboBrain/internal/analysis"
	"github.com/nash169/RoboBrain/internal/config"
	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/nash169/RoboBrain/internal/report"
	"github.com/nash169/RoboBrain/internal/storage"
	"github.com/nash169/RoboBrain/internal/trial"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tINTEG\tNETWORK\tTRIALS\tEXCHANGES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%s\t%v\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.NetworkControl,
			run.Trials,
			run.Exchanges,
		)
	}

	return w.Flush()
}

// terminalPlots are drawn by the plot command.
var terminalPlots = []report.Spec{
	{Source: storage.StateFile, Title: "tilt (rad)", Columns: []string{"roll"}},
	{Source: storage.StateFile, Title: "tilt rate (rad/s)", Columns: []string{"roll_rate"}},
	{Source: storage.StateFile, Title: "altitude (m)", Columns: []string{"z"}},
	{Source: storage.EnvironmentFile, Title: "reward", Columns: []string{"reward"}},
	{Source: storage.NetworkFile, Title: "policy (N m)", Columns: []string{"policy"}},
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("steps: %d, trials: %d\n\n", meta.Steps, meta.Trials)

	for _, spec := range terminalPlots {
		header, rows, err := st.LoadColumns(runID, spec.Source)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		fig, err := report.Select(spec, header, rows)
		if err != nil {
			return err
		}

		graph := asciigraph.Plot(fig.Series[0].Ys,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(spec.Title),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	header, rows, err := st.LoadColumns(runID, storage.StateFile)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("no data")
	}
	fig, err := report.Select(report.Spec{Source: storage.StateFile, Columns: []string{column}}, header, rows)
	if err != nil {
		return err
	}
	data := fig.Series[0].Ys

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("signal: %s\n\n", column)

	freqs, power := analysis.Spectrum(data, meta.Dt)
	// Attitude dynamics live well below a quarter of the sample rate.
	plotData := power[:len(power)/4+1]

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s), 0 to %.0f hz", column, freqs[len(plotData)-1])),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(data, meta.Dt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	portrait, err := analysis.NewPortrait(states, xAxis, yAxis)
	if err != nil {
		return err
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", label(xAxis), label(yAxis))
	fmt.Print(portrait.ASCII(80, 24))
	return nil
}

func label(i int) string {
	if i >= 0 && i < dynamo.StateDim {
		return dynamo.StateLabels[i]
	}
	return fmt.Sprintf("x%d", i)
}

func listTrials(cmd *cobra.Command, args []string) error {
	log := storage.NewTrialLog(filepath.Join(dataDir, trialsDB))
	defer log.Close()
	if err := log.Init(cmd.Context()); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if len(args) == 0 {
		summaries, err := log.Summaries(cmd.Context())
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("no trials recorded")
			return nil
		}
		fmt.Fprintln(w, "RUN\tTRIALS\tMEAN\tMAX")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%d\t%.3fs\t%.3fs\n", s.RunID, s.Trials, s.MeanDuration, s.MaxDuration)
		}
		return w.Flush()
	}

	trials, err := log.List(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(trials) == 0 {
		fmt.Printf("no trials recorded for %s\n", args[0])
		return nil
	}
	fmt.Fprintln(w, "TRIAL\tSTART\tEND\tDURATION")
	for _, tr := range trials {
		fmt.Fprintf(w, "%d\t%.3fs\t%.3fs\t%.3fs\n", tr.Number, tr.Start, tr.End, tr.Duration)
	}
	return w.Flush()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	log := storage.NewTrialLog(filepath.Join(dataDir, trialsDB))
	defer log.Close()
	if err := log.Init(cmd.Context()); err != nil {
		return err
	}

	data, err := st.Export(cmd.Context(), args[0], log)
	if err != nil {
		return err
	}
	return storage.ExportJSON(outFile, data)
}

func exportPNG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	if _, err := st.Load(runID); err != nil {
		return err
	}

	dir := outFile
	if dir == "" {
		dir = st.RunDir(runID)
	}
	written, err := writeFigures(st, runID, dir)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Println(path)
	}
	return nil
}

// writeFigures renders the standard figures and, when the run carries
// network activity, the value map over the run's envelope bounds.
func writeFigures(st *storage.Store, runID, dir string) ([]string, error) {
	written, err := report.Export(st, runID, dir, report.Standard)
	if err != nil {
		return written, err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return written, err
	}
	tilt, rate := meta.TiltBound, meta.RateBound
	if tilt == 0 || rate == 0 {
		env := trial.DefaultEnvelope(config.DefaultDesired())
		tilt, rate = env.Tilt, env.Rate
	}
	path := filepath.Join(dir, "value.png")
	switch err := report.ValueMap(st, runID, path, tilt, rate); {
	case errors.Is(err, report.ErrNoValueSamples):
		logger.Debug("no value samples, skipping value map", zap.String("run_id", runID))
	case err != nil:
		return written, err
	default:
		written = append(written, path)
	}
	return written, nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Printf("  %-10s %.1fs, network control %v\n", name, cfg.Duration, cfg.Trial.NetworkControl)
	}
	return nil
}
