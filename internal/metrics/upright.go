package metrics

import (
	"math"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

// Upright is the fraction of samples whose tilt stays within tolerance.
type Upright struct {
	name      string
	tolerance float64
	upright   int
	samples   int
}

func NewUpright(tolerance float64) *Upright {
	return &Upright{
		name:      "upright",
		tolerance: tolerance,
	}
}

func (s *Upright) Name() string {
	return s.name
}

func (s *Upright) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if math.Abs(x[dynamo.Tilt]) <= s.tolerance {
		s.upright++
	}
}

func (s *Upright) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return float64(s.upright) / float64(s.samples)
}

func (s *Upright) Reset() {
	s.upright = 0
	s.samples = 0
}
