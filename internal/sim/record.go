package sim

import (
	"github.com/nash169/RoboBrain/internal/bridge"
	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/nash169/RoboBrain/internal/trial"
)

// Plant is the physical integrator the driver advances every fast tick.
type Plant interface {
	Advance(x dynamo.State, u dynamo.Control) (dynamo.State, error)
	ForceState(x dynamo.State) error
}

// Regulator is the fast feedback law. Reset clears any carried state.
type Regulator interface {
	Compute(x dynamo.State, t float64) dynamo.Control
	Reset()
}

type Observer interface {
	OnRecord(r Record)
}

type Config struct {
	FastStep float64 `yaml:"fast_step"`
	Duration float64 `yaml:"duration"`
}

// Record is the outcome of one fast tick. State is the state the tick
// produced, after any hold reset, and Time is when it holds.
type Record struct {
	Index    int            `json:"index"`
	Time     float64        `json:"time"`
	State    dynamo.State   `json:"state"`
	Control  dynamo.Control `json:"control"`
	Reward   float64        `json:"reward"`
	Signals  bridge.Signals `json:"signals"`
	Holding  bool           `json:"holding"`
	Exchange bool           `json:"exchange"`
}

type Result struct {
	Initial   dynamo.State       `json:"initial"`
	Desired   dynamo.State       `json:"desired"`
	Records   []Record           `json:"records"`
	Trials    []trial.Record     `json:"trials"`
	Exchanges int                `json:"exchanges"`
	Metrics   map[string]float64 `json:"metrics"`
	Rank      int                `json:"rank"`
	Size      int                `json:"size"`
}

// Column extracts one state component across the run.
func (r *Result) Column(idx int) []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.State[idx]
	}
	return out
}

func (r *Result) Times() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Time
	}
	return out
}

func (r *Result) Rewards() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Reward
	}
	return out
}
