package physics

import (
	"fmt"
	"math"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

const (
	DefaultMass    = 8.0e-5
	DefaultGravity = 9.81
)

// Robobee is a 6-DOF rigid body driven by collective thrust along the body
// z axis and three body torques, with linear aerodynamic damping.
type Robobee struct {
	Mass, Gravity float64
	Inertia       [3]float64
	LinearDrag    [3]float64
	AngularDrag   [3]float64
}

func NewRobobee() *Robobee {
	return &Robobee{
		Mass:        DefaultMass,
		Gravity:     DefaultGravity,
		Inertia:     [3]float64{1.42e-9, 1.34e-9, 0.45e-9},
		LinearDrag:  [3]float64{2.0e-4, 2.0e-4, 2.0e-4},
		AngularDrag: [3]float64{2.0e-10, 2.0e-10, 1.0e-10},
	}
}

func (b *Robobee) StateDim() int   { return dynamo.StateDim }
func (b *Robobee) ControlDim() int { return dynamo.ControlDim }

func (b *Robobee) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	phi, theta, psi := x[dynamo.Roll], x[dynamo.Pitch], x[dynamo.Yaw]
	p, q, r := x[dynamo.RollRate], x[dynamo.PitchRate], x[dynamo.YawRate]
	vu, vv, vw := x[dynamo.VelX], x[dynamo.VelY], x[dynamo.VelZ]

	thrust := math.Max(0, u[dynamo.Thrust])
	tx, ty, tz := u[dynamo.TorqueX], u[dynamo.TorqueY], u[dynamo.TorqueZ]

	sphi, cphi := math.Sincos(phi)
	sth, cth := math.Sincos(theta)
	spsi, cpsi := math.Sincos(psi)

	// Keep the Euler-rate map finite near gimbal lock.
	if math.Abs(cth) < 1e-3 {
		cth = math.Copysign(1e-3, cth)
	}

	dx := make(dynamo.State, dynamo.StateDim)

	dx[dynamo.Roll] = p + (q*sphi+r*cphi)*sth/cth
	dx[dynamo.Pitch] = q*cphi - r*sphi
	dx[dynamo.Yaw] = (q*sphi + r*cphi) / cth

	ix, iy, iz := b.Inertia[0], b.Inertia[1], b.Inertia[2]
	dx[dynamo.RollRate] = (tx - (iz-iy)*q*r - b.AngularDrag[0]*p) / ix
	dx[dynamo.PitchRate] = (ty - (ix-iz)*p*r - b.AngularDrag[1]*q) / iy
	dx[dynamo.YawRate] = (tz - (iy-ix)*p*q - b.AngularDrag[2]*r) / iz

	// Inertial velocity is R(psi, theta, phi) applied to the body velocity.
	dx[dynamo.PosX] = cpsi*cth*vu + (cpsi*sth*sphi-spsi*cphi)*vv + (cpsi*sth*cphi+spsi*sphi)*vw
	dx[dynamo.PosY] = spsi*cth*vu + (spsi*sth*sphi+cpsi*cphi)*vv + (spsi*sth*cphi-cpsi*sphi)*vw
	dx[dynamo.PosZ] = -sth*vu + cth*sphi*vv + cth*cphi*vw

	g := b.Gravity
	dx[dynamo.VelX] = -b.LinearDrag[0]*vu/b.Mass + g*sth - (q*vw - r*vv)
	dx[dynamo.VelY] = -b.LinearDrag[1]*vv/b.Mass - g*cth*sphi - (r*vu - p*vw)
	dx[dynamo.VelZ] = (thrust-b.LinearDrag[2]*vw)/b.Mass - g*cth*cphi - (p*vv - q*vu)

	return dx
}

func (b *Robobee) HoverThrust() float64 {
	return b.Mass * b.Gravity
}

func (b *Robobee) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    b.Mass,
		"gravity": b.Gravity,
		"ixx":     b.Inertia[0],
		"iyy":     b.Inertia[1],
		"izz":     b.Inertia[2],
	}
}

func (b *Robobee) SetParam(name string, value float64) error {
	if value <= 0 {
		return fmt.Errorf("%w: %s must be positive", dynamo.ErrParameterBounds, name)
	}
	switch name {
	case "mass":
		b.Mass = value
	case "gravity":
		b.Gravity = value
	case "ixx":
		b.Inertia[0] = value
	case "iyy":
		b.Inertia[1] = value
	case "izz":
		b.Inertia[2] = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
