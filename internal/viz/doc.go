// Package viz provides the live terminal monitor for running simulations.
//
// The monitor is a Bubble Tea program fed from the simulation loop:
//
//   - [Feed]: a simulation observer that forwards every Nth record
//   - [Monitor]: the model drawing attitude, reward and agent signals
//
// # Key Bindings
//
//	Space - Freeze/unfreeze the display
//	Q     - Quit (cancels the run)
package viz
