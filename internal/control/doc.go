// Package control provides the robobee feedback regulator.
//
// [Feedback] implements [dynamo.Controller] with two sub-laws evaluated on
// every fast tick:
//
//   - [Feedback.AltitudeControl]: state-space compensator on altitude and
//     vertical velocity plus hover compensation, saturated to [0, MaxThrust]
//   - [Feedback.DampingControl]: linear attitude/rate feedback through a
//     [Gain], saturated to ±MaxTorque per axis
//
// # Usage
//
//	fb := control.NewFeedback(desired, control.DefaultParams())
//	u := fb.Compute(x, t)
//	// after a forced reset of the plant
//	fb.Reset()
//
// Outputs are bounded for every input; the regulator never fails.
package control
