package report

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ValueBins is the grid resolution of the value map along each axis.
const ValueBins = 40

// ErrNoValueSamples is returned when no critic value falls inside the bounds.
var ErrNoValueSamples = errors.New("report: no value samples within bounds")

// ValueGrid holds the mean critic value over the tilt / tilt rate plane.
// Cells without samples are NaN.
type ValueGrid struct {
	TiltBound float64
	RateBound float64
	Bins      int
	Mean      [][]float64 // [tilt bin][rate bin]
	Samples   int
}

func (g *ValueGrid) Dims() (c, r int) { return g.Bins, g.Bins }
func (g *ValueGrid) Z(c, r int) float64 { return g.Mean[c][r] }
func (g *ValueGrid) X(c int) float64 { return binCenter(c, g.Bins, g.TiltBound) }
func (g *ValueGrid) Y(r int) float64 { return binCenter(r, g.Bins, g.RateBound) }

// Range is the smallest and largest populated cell.
func (g *ValueGrid) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, col := range g.Mean {
		for _, v := range col {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func binCenter(i, bins int, bound float64) float64 {
	width := 2 * bound / float64(bins)
	return -bound + (float64(i)+0.5)*width
}

func binIndex(v float64, bins int, bound float64) (int, bool) {
	if math.IsNaN(v) || v < -bound || v > bound {
		return 0, false
	}
	i := int((v + bound) / (2 * bound) * float64(bins))
	if i == bins {
		i--
	}
	return i, true
}

func column(header []string, name, source string) (int, error) {
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s has no column %q", source, name)
}

// BuildValueGrid pairs every network row with the state row nearest in time
// and averages the critic value per (roll, roll_rate) cell. Samples outside
// ±tiltBound or ±rateBound are dropped.
func BuildValueGrid(stateHeader []string, states [][]float64, netHeader []string, net [][]float64, tiltBound, rateBound float64, bins int) (*ValueGrid, error) {
	if tiltBound <= 0 || rateBound <= 0 || bins <= 0 {
		return nil, fmt.Errorf("value grid: bounds and bins must be positive")
	}
	rollCol, err := column(stateHeader, "roll", "state.csv")
	if err != nil {
		return nil, err
	}
	rateCol, err := column(stateHeader, "roll_rate", "state.csv")
	if err != nil {
		return nil, err
	}
	valueCol, err := column(netHeader, "value", "network.csv")
	if err != nil {
		return nil, err
	}

	sum := make([][]float64, bins)
	count := make([][]int, bins)
	for i := range sum {
		sum[i] = make([]float64, bins)
		count[i] = make([]int, bins)
	}

	g := &ValueGrid{TiltBound: tiltBound, RateBound: rateBound, Bins: bins}
	for _, row := range net {
		s, ok := nearest(states, row[0])
		if !ok {
			continue
		}
		v := row[valueCol]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		c, ok := binIndex(s[rollCol], bins, tiltBound)
		if !ok {
			continue
		}
		r, ok := binIndex(s[rateCol], bins, rateBound)
		if !ok {
			continue
		}
		sum[c][r] += v
		count[c][r]++
		g.Samples++
	}
	if g.Samples == 0 {
		return nil, ErrNoValueSamples
	}

	g.Mean = make([][]float64, bins)
	for c := range g.Mean {
		g.Mean[c] = make([]float64, bins)
		for r := range g.Mean[c] {
			if count[c][r] == 0 {
				g.Mean[c][r] = math.NaN()
				continue
			}
			g.Mean[c][r] = sum[c][r] / float64(count[c][r])
		}
	}
	return g, nil
}

// nearest returns the row whose time is closest to t. rows are sorted by time.
func nearest(rows [][]float64, t float64) ([]float64, bool) {
	if len(rows) == 0 {
		return nil, false
	}
	i := sort.Search(len(rows), func(i int) bool { return rows[i][0] >= t })
	switch {
	case i == len(rows):
		return rows[i-1], true
	case i > 0 && t-rows[i-1][0] < rows[i][0]-t:
		return rows[i-1], true
	}
	return rows[i], true
}

// ValueMap loads a run and writes its value map to filename.
func ValueMap(l Loader, runID, filename string, tiltBound, rateBound float64) error {
	stateHeader, states, err := l.LoadColumns(runID, "state.csv")
	if err != nil {
		return err
	}
	netHeader, net, err := l.LoadColumns(runID, "network.csv")
	if err != nil {
		return err
	}
	g, err := BuildValueGrid(stateHeader, states, netHeader, net, tiltBound, rateBound, ValueBins)
	if err != nil {
		return err
	}
	return SaveValueMap(g, filename, 8, 6)
}

// SaveValueMap renders g as a heat map at 300 dpi.
func SaveValueMap(g *ValueGrid, filename string, widthIn, heightIn float64) error {
	lo, hi := g.Range()
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return ErrNoValueSamples
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Value function [%.3g, %.3g]", lo, hi)
	p.X.Label.Text = "tilt (rad)"
	p.Y.Label.Text = "tilt rate (rad/s)"
	stylePlot(p)

	hm := plotter.NewHeatMap(g, moreland.Kindlmann().Palette(255))
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.White
	p.Add(hm)

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(300),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
