// Package analysis characterizes recorded flights.
//
//   - [Spectrum]: one-sided power spectrum of a uniformly sampled signal
//   - [DominantFrequency]: strongest non-zero frequency of a signal
//   - [NewPortrait]: phase space trajectory of two state coordinates
//
// # Attitude oscillation
//
// A hovering robobee whose attitude loop is poorly tuned rocks about its
// roll axis. The dominant frequency of the roll angle exposes it:
//
//	f := analysis.DominantFrequency(roll, dt)
package analysis
