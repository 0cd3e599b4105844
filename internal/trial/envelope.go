package trial

import (
	"fmt"
	"math"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

// Envelope bounds the flight region of a trial.
type Envelope struct {
	Tilt float64 `yaml:"tilt"`
	Rate float64 `yaml:"rate"`
	// Cage bounds dx²/4 + dy²/4 + dz² around the desired position.
	Cage float64 `yaml:"cage"`
}

// DefaultEnvelope allows any upright attitude, tilt rates below 6.5π rad/s
// and a cage whose vertical half-height is the desired altitude.
func DefaultEnvelope(desired dynamo.State) Envelope {
	return Envelope{
		Tilt: math.Pi,
		Rate: 6*math.Pi + math.Pi/2,
		Cage: desired[dynamo.PosZ] * desired[dynamo.PosZ],
	}
}

func (e Envelope) Validate() error {
	if e.Tilt <= 0 || e.Rate <= 0 || e.Cage <= 0 {
		return fmt.Errorf("%w: envelope bounds must be positive, got %+v", dynamo.ErrParameterBounds, e)
	}
	return nil
}

// CageDistance is the squared, horizontally relaxed distance from desired.
func CageDistance(x, desired dynamo.State) float64 {
	dx := x[dynamo.PosX] - desired[dynamo.PosX]
	dy := x[dynamo.PosY] - desired[dynamo.PosY]
	dz := x[dynamo.PosZ] - desired[dynamo.PosZ]
	return dx*dx/4 + dy*dy/4 + dz*dz
}

// Violated reports whether x leaves the envelope. NaN components count as
// a violation.
func (e Envelope) Violated(x, desired dynamo.State) bool {
	tilt := math.Abs(x[dynamo.Tilt])
	rate := math.Abs(x[dynamo.TiltRate])
	cage := CageDistance(x, desired)
	return !(tilt <= e.Tilt && rate <= e.Rate && cage <= e.Cage)
}
