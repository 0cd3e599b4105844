// Package agent adapts the spiking learning agent to the bridge transport
// contract.
//
// The agent itself is external. This package holds the event-level glue
// around it:
//
//   - [Comm]: explicit rank/size of a multi-process run and the channel
//     slice each rank owns
//   - [SpikeHandler]: single-callback capability for incoming spikes
//   - [Sender]: place-cell encoder turning state into Poisson spike trains
//   - [Receiver]: population readout of critic, actor and dopaminergic
//     activity
//   - [Loopback]: in-process transport that needs no peer
package agent
