// Package trial supervises robobee episodes.
//
// A [Supervisor] is a two-phase state machine ([Running], [Hold]). After
// every fast tick the driver asks it to shape a reward from the new state
// and to check the flight envelope. A violation ends the current trial,
// arms a one-shot punishment and starts a hold countdown during which the
// driver pins the plant to its initial state.
package trial
