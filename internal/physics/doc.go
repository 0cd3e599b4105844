// Package physics provides the reference robobee model.
//
// [Robobee] implements [dynamo.System] with the 12-component state layout
// of package dynamo and [dynamo.Configurable] for parameter overrides.
// [Plant] binds a system to a fixed-step integrator and satisfies the
// advance/force-state contract of the simulation driver:
//
//	plant, _ := physics.NewPlant(physics.NewRobobee(), integrators.NewRK4(), 1e-3, x0)
//	next, err := plant.Advance(x, u)
//
// The model favors plausibility over fidelity; it exists so the control
// loop can run without an external integrator.
package physics
