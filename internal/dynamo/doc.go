// Package dynamo provides the shared primitives of the robobee simulation.
//
// The package defines the vector shapes and interfaces every other package
// agrees on:
//
//   - [State]: 12-component robobee state (attitude, body rates,
//     inertial position, body velocity), indexed by [Roll] .. [VelZ]
//   - [Control]: 4-component control (thrust, three torques)
//   - [System]: continuous-time model (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper over a [System]
//   - [Metric]: per-tick observer reduced to a scalar
//
// Fatal loop failures are reported as [SimulationError] wrapping one of the
// sentinel errors declared in this package.
package dynamo
