package dynamo

import (
	"fmt"
	"math"
)

// StateDim and ControlDim fix the shape of every robobee vector.
const (
	StateDim   = 12
	ControlDim = 4
)

// State layout: angular position (body), angular velocity (body),
// linear position (inertial), linear velocity (body).
const (
	Roll = iota
	Pitch
	Yaw
	RollRate
	PitchRate
	YawRate
	PosX
	PosY
	PosZ
	VelX
	VelY
	VelZ
)

// Control layout: collective thrust then body torques.
const (
	Thrust = iota
	TorqueX
	TorqueY
	TorqueZ
)

// Tilt is the angle watched by the trial envelope and the reward.
const (
	Tilt     = Roll
	TiltRate = RollRate
)

// Column labels used by storage and plots.
var (
	StateLabels = [StateDim]string{
		"roll", "pitch", "yaw", "roll_rate", "pitch_rate", "yaw_rate",
		"x", "y", "z", "u", "v", "w",
	}
	ControlLabels = [ControlDim]string{"thrust", "torque_x", "torque_y", "torque_z"}
)

type State []float64

func NewState() State {
	return make(State, StateDim)
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// CheckDim reports ErrDimensionMismatch unless s has StateDim components.
func (s State) CheckDim() error {
	if len(s) != StateDim {
		return fmt.Errorf("%w: state has %d components, want %d", ErrDimensionMismatch, len(s), StateDim)
	}
	return nil
}

type Control []float64

func NewControl() Control {
	return make(Control, ControlDim)
}

func (c Control) Clone() Control {
	out := make(Control, len(c))
	copy(out, c)
	return out
}

// System is a continuous-time model dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
