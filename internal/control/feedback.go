package control

import (
	"math"

	"github.com/nash169/RoboBrain/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Params holds the physical constants and tuning of the robobee regulator.
type Params struct {
	Mass      float64 `yaml:"mass"`
	Gravity   float64 `yaml:"gravity"`
	MaxThrust float64 `yaml:"max_thrust"`
	MaxTorque float64 `yaml:"max_torque"`

	Inertia     [3]float64 `yaml:"inertia"`
	LinearDrag  [3]float64 `yaml:"linear_drag"`
	AngularDrag [3]float64 `yaml:"angular_drag"`

	// Sample time of the altitude compensator, normally the fast step.
	Dt float64 `yaml:"dt"`

	AltitudeKp float64 `yaml:"altitude_kp"`
	AltitudeKi float64 `yaml:"altitude_ki"`
	AltitudeKd float64 `yaml:"altitude_kd"`

	// Closed-loop natural frequency and damping ratio of each attitude axis.
	AttitudeWn   float64 `yaml:"attitude_wn"`
	AttitudeZeta float64 `yaml:"attitude_zeta"`
}

// DefaultParams is tuned for an 80 mg flapping-wing vehicle at 1 kHz.
func DefaultParams() Params {
	return Params{
		Mass:         8.0e-5,
		Gravity:      9.81,
		MaxThrust:    1.3e-3,
		MaxTorque:    2.0e-6,
		Inertia:      [3]float64{1.42e-9, 1.34e-9, 0.45e-9},
		LinearDrag:   [3]float64{2.0e-4, 2.0e-4, 2.0e-4},
		AngularDrag:  [3]float64{2.0e-10, 2.0e-10, 1.0e-10},
		Dt:           1e-3,
		AltitudeKp:   5.12e-3,
		AltitudeKi:   4.0e-3,
		AltitudeKd:   1.35e-3,
		AttitudeWn:   40,
		AttitudeZeta: 0.8,
	}
}

// Feedback is the robobee regulator: an altitude compensator producing
// collective thrust and an attitude damping law producing body torques.
//
// The altitude law is the discrete state-space system
//
//	f[k]   = C xi[k] + D e[k]
//	xi[k+1] = A xi[k] + B e[k]
//
// with e = [z_d - z, w_d - w] and xi the carried integrator state.
type Feedback struct {
	params  Params
	desired dynamo.State
	hover   float64

	a, b, c, d *mat.Dense
	xi         *mat.VecDense

	damping *Gain

	// scratch
	e, f, next, att, tau *mat.VecDense
}

func NewFeedback(desired dynamo.State, p Params) *Feedback {
	kd := math.Max(p.AltitudeKd-p.LinearDrag[2], 0)

	var kAngle, kRate [3]float64
	for i := 0; i < 3; i++ {
		kAngle[i] = p.Inertia[i] * p.AttitudeWn * p.AttitudeWn
		kRate[i] = math.Max(2*p.AttitudeZeta*p.AttitudeWn*p.Inertia[i]-p.AngularDrag[i], 0)
	}

	target := mat.NewVecDense(6, []float64{
		desired[dynamo.Roll], desired[dynamo.Pitch], desired[dynamo.Yaw],
		desired[dynamo.RollRate], desired[dynamo.PitchRate], desired[dynamo.YawRate],
	})
	damping := &Gain{K: diagBlock(kAngle, kRate), Target: target}

	return &Feedback{
		params:  p,
		desired: desired.Clone(),
		hover:   p.Mass * p.Gravity,
		a:       mat.NewDense(1, 1, []float64{1}),
		b:       mat.NewDense(1, 2, []float64{p.Dt, 0}),
		c:       mat.NewDense(1, 1, []float64{p.AltitudeKi}),
		d:       mat.NewDense(1, 2, []float64{p.AltitudeKp, kd}),
		xi:      mat.NewVecDense(1, nil),
		damping: damping,
		e:       mat.NewVecDense(2, nil),
		f:       mat.NewVecDense(1, nil),
		next:    mat.NewVecDense(1, nil),
		att:     mat.NewVecDense(6, nil),
		tau:     mat.NewVecDense(3, nil),
	}
}

// HoverThrust is the gravity compensation term m*g.
func (fb *Feedback) HoverThrust() float64 { return fb.hover }

func (fb *Feedback) Params() Params { return fb.params }

// AltitudeControl returns collective thrust saturated to [0, MaxThrust].
func (fb *Feedback) AltitudeControl(x dynamo.State) float64 {
	ez := finite(fb.desired[dynamo.PosZ] - x[dynamo.PosZ])
	ew := finite(fb.desired[dynamo.VelZ] - x[dynamo.VelZ])
	fb.e.SetVec(0, ez)
	fb.e.SetVec(1, ew)

	var cx mat.VecDense
	cx.MulVec(fb.c, fb.xi)
	fb.f.MulVec(fb.d, fb.e)
	fb.f.AddVec(fb.f, &cx)

	var ax, be mat.VecDense
	ax.MulVec(fb.a, fb.xi)
	be.MulVec(fb.b, fb.e)
	fb.next.AddVec(&ax, &be)
	fb.xi.CopyVec(fb.next)

	// Project the vertical command onto the tilted thrust axis.
	tilt := math.Cos(finite(x[dynamo.Roll])) * math.Cos(finite(x[dynamo.Pitch]))
	tilt = math.Max(tilt, 0.5)

	thrust := (fb.hover + fb.f.AtVec(0)) / tilt
	return saturate(thrust, 0, fb.params.MaxThrust)
}

// DampingControl returns body torques, each saturated to ±MaxTorque.
func (fb *Feedback) DampingControl(x dynamo.State) [3]float64 {
	for i := 0; i < 6; i++ {
		fb.att.SetVec(i, finite(x[dynamo.Roll+i]))
	}
	fb.damping.Apply(fb.tau, fb.att)

	var out [3]float64
	for i := range out {
		out[i] = saturate(fb.tau.AtVec(i), -fb.params.MaxTorque, fb.params.MaxTorque)
	}
	return out
}

// Compute joins both laws into a control vector. It advances the altitude
// compensator exactly once.
func (fb *Feedback) Compute(x dynamo.State, t float64) dynamo.Control {
	u := dynamo.NewControl()
	u[dynamo.Thrust] = fb.AltitudeControl(x)
	tau := fb.DampingControl(x)
	copy(u[dynamo.TorqueX:], tau[:])
	return u
}

// Reset clears the compensator state.
func (fb *Feedback) Reset() {
	fb.xi.Zero()
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// saturate clamps v into [lo, hi]; NaN maps to the bound nearest zero.
func saturate(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return math.Max(lo, math.Min(0, hi))
	}
	return math.Max(lo, math.Min(v, hi))
}
