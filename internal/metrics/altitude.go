package metrics

import (
	"math"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

// AltitudeError is the mean absolute deviation from the target altitude.
type AltitudeError struct {
	name    string
	target  float64
	total   float64
	samples int
}

func NewAltitudeError(target float64) *AltitudeError {
	return &AltitudeError{
		name:   "altitude_error",
		target: target,
	}
}

func (e *AltitudeError) Name() string { return e.name }

func (e *AltitudeError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	e.total += math.Abs(x[dynamo.PosZ] - e.target)
	e.samples++
}

func (e *AltitudeError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *AltitudeError) Reset() {
	e.total = 0
	e.samples = 0
}
