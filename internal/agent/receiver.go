package agent

import (
	"fmt"
	"sort"
)

// SpikeHandler receives one spike on a global channel id.
type SpikeHandler interface {
	HandleSpike(t float64, id int)
}

// HandlerFunc adapts a function to SpikeHandler.
type HandlerFunc func(t float64, id int)

func (f HandlerFunc) HandleSpike(t float64, id int) { f(t, id) }

// Population ids in the order the agent lays out its output channels.
const (
	Critic = iota
	Actor
	Dopa
)

type CriticParams struct {
	Gain   float64 `yaml:"gain"`
	Offset float64 `yaml:"offset"`
	// TauR is the reward discount time constant of the continuous TD error.
	TauR float64 `yaml:"tau_r"`
}

type ActorParams struct {
	FMax float64 `yaml:"f_max"`
	FMin float64 `yaml:"f_min"`
}

type DopaParams struct {
	Gain   float64 `yaml:"gain"`
	Offset float64 `yaml:"offset"`
}

type ReceiverConfig struct {
	// Sizes of the critic, actor and dopaminergic populations.
	Sizes  [3]int       `yaml:"sizes"`
	Window float64      `yaml:"window"`
	Critic CriticParams `yaml:"critic"`
	Actor  ActorParams  `yaml:"actor"`
	Dopa   DopaParams   `yaml:"dopa"`
}

func DefaultReceiverConfig() ReceiverConfig {
	return ReceiverConfig{
		Sizes:  [3]int{50, 60, 100},
		Window: 0.01,
		Critic: CriticParams{Gain: 1.5, Offset: -70, TauR: 30},
		Actor:  ActorParams{FMax: 2e-6, FMin: -2e-6},
		Dopa:   DopaParams{Gain: 1, Offset: 0},
	}
}

type spike struct {
	t      float64
	neuron int
}

// Receiver buckets incoming spikes per population and decodes rates over
// the trailing window into the agent signals.
type Receiver struct {
	cfg    ReceiverConfig
	bounds [4]int
	spikes [3][]spike

	prevValue float64
	havePrev  bool
}

func NewReceiver(cfg ReceiverConfig) (*Receiver, error) {
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("receiver window must be positive, got %g", cfg.Window)
	}
	if cfg.Critic.TauR <= 0 {
		return nil, fmt.Errorf("critic tau_r must be positive, got %g", cfg.Critic.TauR)
	}
	r := &Receiver{cfg: cfg}
	for i, n := range cfg.Sizes {
		if n <= 0 {
			return nil, fmt.Errorf("population %d must not be empty", i)
		}
		r.bounds[i+1] = r.bounds[i] + n
	}
	return r, nil
}

// Width is the number of input channels the receiver decodes.
func (r *Receiver) Width() int { return r.bounds[3] }

func (r *Receiver) HandleSpike(t float64, id int) {
	if id < 0 || id >= r.bounds[3] {
		return
	}
	pop := sort.SearchInts(r.bounds[1:], id+1)
	r.spikes[pop] = append(r.spikes[pop], spike{t: t, neuron: id - r.bounds[pop]})
}

// counts returns per-neuron spike counts of pop in (t-window, t] and drops
// spikes too old to matter again.
func (r *Receiver) counts(pop int, t float64) []int {
	from := t - r.cfg.Window
	out := make([]int, r.cfg.Sizes[pop])
	kept := r.spikes[pop][:0]
	for _, s := range r.spikes[pop] {
		if s.t <= from-r.cfg.Window {
			continue
		}
		kept = append(kept, s)
		if s.t > from && s.t <= t {
			out[s.neuron]++
		}
	}
	r.spikes[pop] = kept
	return out
}

// Rate is the mean firing rate of pop in Hz over the trailing window.
func (r *Receiver) Rate(pop int, t float64) float64 {
	total := 0
	for _, c := range r.counts(pop, t) {
		total += c
	}
	return float64(total) / (float64(r.cfg.Sizes[pop]) * r.cfg.Window)
}

// Action decodes the actor population vector: every neuron prefers one
// action in [FMin, FMax] and votes with its rate. A silent actor yields the
// midpoint.
func (r *Receiver) Action(t float64) float64 {
	counts := r.counts(Actor, t)
	lo, hi := r.cfg.Actor.FMin, r.cfg.Actor.FMax
	n := len(counts)

	sum, weight := 0.0, 0.0
	for i, c := range counts {
		pref := lo
		if n > 1 {
			pref = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		sum += float64(c) * pref
		weight += float64(c)
	}
	if weight == 0 {
		return (lo + hi) / 2
	}
	return sum / weight
}

// Dopa is the modulatory population readout.
func (r *Receiver) Dopa(t float64) float64 {
	return r.cfg.Dopa.Gain*r.Rate(Dopa, t) + r.cfg.Dopa.Offset
}

// Value returns the critic value and the continuous-time TD error
// r - V/tau_r + dV/dt, with dV/dt taken over one window.
func (r *Receiver) Value(t, reward float64) (float64, float64) {
	v := r.cfg.Critic.Gain*r.Rate(Critic, t) + r.cfg.Critic.Offset
	dv := 0.0
	if r.havePrev {
		dv = (v - r.prevValue) / r.cfg.Window
	}
	r.prevValue = v
	r.havePrev = true
	return v, reward - v/r.cfg.Critic.TauR + dv
}
