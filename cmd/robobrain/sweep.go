package main

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nash169/RoboBrain/internal/optim"
)

var (
	sweepParams []string
	sweepMetric string
	maximize    bool
	workers     int
)

func newSweepCmd() *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search configuration parameters for the best metric",
		Long: "sweep runs one simulation per grid point. Each --param is name=v1,v2,...\n" +
			"available parameters: " + strings.Join(optim.ListSetters(), ", "),
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter grid, name=v1,v2,...")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "altitude_error", "metric to optimize")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")
	sweepCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "simulations run at once")
	return sweepCmd
}

// parseGrid turns name=v1,v2 arguments into parallel name and value lists.
func parseGrid(args []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("bad grid %q, want name=v1,v2", arg)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(sweepParams)
	if err != nil {
		return err
	}

	g, err := optim.NewGridSearch(names, ranges, logger)
	if err != nil {
		return err
	}
	g.Maximize = maximize
	g.Workers = workers

	best, value, trials, err := g.Search(cmd.Context(), cfg, sweepMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for _, tr := range trials {
		cols := make([]string, len(names))
		for i, name := range names {
			cols[i] = strconv.FormatFloat(tr.Params[name], 'g', -1, 64)
		}
		result := fmt.Sprintf("%.6f", tr.Value)
		if tr.Err != nil {
			result = "error: " + tr.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), result)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("\nbest %s: %.6f\n", sweepMetric, value)
	for _, k := range keys {
		fmt.Printf("  %s = %g\n", k, best[k])
	}
	return nil
}
