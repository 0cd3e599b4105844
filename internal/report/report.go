// Package report renders stored runs as PNG figures.
package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Loader reads one csv table of a stored run.
type Loader interface {
	LoadColumns(runID, file string) ([]string, [][]float64, error)
}

// Spec selects columns of a run table for one figure. The first column of
// every table is time.
type Spec struct {
	File    string
	Source  string
	Title   string
	YLabel  string
	Columns []string
}

// Standard is the figure set written for every run.
var Standard = []Spec{
	{File: "attitude.png", Source: "state.csv", Title: "Attitude", YLabel: "angle (rad)", Columns: []string{"roll", "pitch", "yaw"}},
	{File: "tilt_rate.png", Source: "state.csv", Title: "Tilt rate", YLabel: "rate (rad/s)", Columns: []string{"roll_rate"}},
	{File: "position.png", Source: "state.csv", Title: "Robot position", YLabel: "position (m)", Columns: []string{"x", "y", "z"}},
	{File: "thrust.png", Source: "control.csv", Title: "Thrust", YLabel: "force (N)", Columns: []string{"thrust"}},
	{File: "torque.png", Source: "control.csv", Title: "Body torques", YLabel: "torque (N m)", Columns: []string{"torque_x", "torque_y", "torque_z"}},
	{File: "network.png", Source: "network.csv", Title: "Network activity", YLabel: "activity", Columns: []string{"value", "modulatory"}},
	{File: "policy.png", Source: "network.csv", Title: "Policy", YLabel: "torque (N m)", Columns: []string{"policy"}},
	{File: "environment.png", Source: "environment.csv", Title: "Environment activity", YLabel: "signal", Columns: []string{"reward", "td_error"}},
}

type Series struct {
	Name string
	Ys   []float64
}

type Figure struct {
	Title  string
	YLabel string
	X      []float64
	Series []Series
}

// Select builds a figure from a table according to spec.
func Select(spec Spec, header []string, rows [][]float64) (Figure, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}

	fig := Figure{Title: spec.Title, YLabel: spec.YLabel, X: make([]float64, len(rows))}
	for i, row := range rows {
		fig.X[i] = row[0]
	}
	for _, name := range spec.Columns {
		col, ok := index[name]
		if !ok {
			return Figure{}, fmt.Errorf("%s has no column %q", spec.Source, name)
		}
		ys := make([]float64, len(rows))
		for i, row := range rows {
			ys[i] = row[col]
		}
		fig.Series = append(fig.Series, Series{Name: name, Ys: ys})
	}
	return fig, nil
}

// Export writes every figure of specs for runID into outDir and returns the
// written paths. Tables without rows are skipped.
func Export(l Loader, runID, outDir string, specs []Spec) ([]string, error) {
	written := make([]string, 0, len(specs))
	for _, spec := range specs {
		header, rows, err := l.LoadColumns(runID, spec.Source)
		if err != nil {
			return written, err
		}
		if len(rows) == 0 {
			continue
		}
		fig, err := Select(spec, header, rows)
		if err != nil {
			return written, err
		}
		path := filepath.Join(outDir, spec.File)
		if err := SavePNG(fig, path, 8, 6); err != nil {
			return written, fmt.Errorf("%s: %w", spec.File, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(18)
	p.Title.Padding = vg.Points(10)
	p.X.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)
	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
}

// SavePNG renders fig at 300 dpi.
func SavePNG(fig Figure, filename string, widthIn, heightIn float64) error {
	if len(fig.X) == 0 || len(fig.Series) == 0 {
		return fmt.Errorf("plot data invalid")
	}

	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = fig.YLabel
	stylePlot(p)

	for i, s := range fig.Series {
		if len(s.Ys) != len(fig.X) {
			return fmt.Errorf("series %q has %d points, want %d", s.Name, len(s.Ys), len(fig.X))
		}
		pts := make(plotter.XYs, 0, len(fig.X))
		for j, x := range fig.X {
			if math.IsNaN(s.Ys[j]) || math.IsInf(s.Ys[j], 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: x, Y: s.Ys[j]})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	w := vg.Length(widthIn) * vg.Inch
	h := vg.Length(heightIn) * vg.Inch

	c := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseDPI(300),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
