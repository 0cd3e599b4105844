package analysis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

type Point struct{ X, Y float64 }

// Portrait holds a 2D phase space trajectory.
type Portrait struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPortrait extracts coordinates x and y of every state.
func NewPortrait(states [][]float64, x, y int) (*Portrait, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("no states")
	}
	p := &Portrait{XIndex: x, YIndex: y, Points: make([]Point, 0, len(states))}
	for i, s := range states {
		if x < 0 || y < 0 || x >= len(s) || y >= len(s) {
			return nil, fmt.Errorf("state %d has %d coordinates, need indices %d and %d", i, len(s), x, y)
		}
		p.Points = append(p.Points, Point{X: s[x], Y: s[y]})
	}
	return p, nil
}

func (p *Portrait) bounds() (minX, maxX, minY, maxY float64) {
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		xs[i] = pt.X
		ys[i] = pt.Y
	}
	return floats.Min(xs), floats.Max(xs), floats.Min(ys), floats.Max(ys)
}

// ASCII draws the portrait on a width by height character grid with axes
// through the origin when it is in view.
func (p *Portrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := p.bounds()
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		c, r := col(pt.X), row(pt.Y)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := 0; r < height; r++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := 0; c < width; c++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}
