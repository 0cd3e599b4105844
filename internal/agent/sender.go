package agent

import (
	"fmt"
	"math"
	"math/rand"
)

// Event is one spike on a global channel id.
type Event struct {
	Time float64 `json:"time"`
	ID   int     `json:"id"`
}

// PlaceField encodes one state component with a row of Gaussian place
// cells. A positive Range spans [0, Range) and wraps when Angular; a
// negative Range spans [-|Range|, |Range|].
type PlaceField struct {
	StateID    int     `yaml:"state_id"`
	Resolution int     `yaml:"resolution"`
	Angular    bool    `yaml:"angular"`
	Range      float64 `yaml:"range"`
}

type SenderConfig struct {
	Fields  []PlaceField `yaml:"fields"`
	MaxRate float64      `yaml:"max_rate"`
	FirstID int          `yaml:"first_id"`
	Seed    int64        `yaml:"seed"`
}

func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		Fields: []PlaceField{
			{StateID: 0, Resolution: 7, Angular: true, Range: 2 * math.Pi},
			{StateID: 3, Resolution: 7, Angular: false, Range: -6 * math.Pi},
		},
		MaxRate: 500,
		FirstID: 700,
	}
}

type cell struct {
	field  int
	center float64
	sigma  float64
}

// Sender turns state vectors into Poisson spike trains from place cells.
// Only the channels this rank owns are emitted.
type Sender struct {
	cfg   SenderConfig
	cells []cell
	owned Index
	rng   *rand.Rand
}

func NewSender(cfg SenderConfig, comm Comm) (*Sender, error) {
	if cfg.MaxRate <= 0 {
		return nil, fmt.Errorf("place cell max rate must be positive, got %g", cfg.MaxRate)
	}
	s := &Sender{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
	for fi, f := range cfg.Fields {
		if f.Resolution < 1 || f.Range == 0 {
			return nil, fmt.Errorf("place field %d: resolution and range must be non-zero", fi)
		}
		lo, span := 0.0, f.Range
		if f.Range < 0 {
			lo, span = f.Range, -2*f.Range
		}
		step := span / float64(f.Resolution)
		if !f.Angular && f.Resolution > 1 {
			step = span / float64(f.Resolution-1)
		}
		for i := 0; i < f.Resolution; i++ {
			s.cells = append(s.cells, cell{field: fi, center: lo + step*float64(i), sigma: step})
		}
	}
	s.owned = comm.Split(len(s.cells))
	return s, nil
}

// Width is the number of place cells across all fields.
func (s *Sender) Width() int { return len(s.cells) }

// Rates returns the firing rate of every place cell for state x.
func (s *Sender) Rates(x []float64) []float64 {
	rates := make([]float64, len(s.cells))
	for i, c := range s.cells {
		f := s.cfg.Fields[c.field]
		d := x[f.StateID] - c.center
		if f.Angular {
			d = math.Remainder(d, f.Range)
		}
		rates[i] = s.cfg.MaxRate * math.Exp(-d*d/(2*c.sigma*c.sigma))
	}
	return rates
}

// Encode draws the spikes this rank emits in [from, from+period) for state x.
func (s *Sender) Encode(x []float64, from, period float64) []Event {
	rates := s.Rates(x)
	var out []Event
	for i := s.owned.First; i < s.owned.First+s.owned.Count; i++ {
		out = appendPoisson(out, s.rng, rates[i], from, period, s.cfg.FirstID+i)
	}
	return out
}

// appendPoisson appends a homogeneous Poisson train on channel id.
func appendPoisson(out []Event, rng *rand.Rand, rate, from, period float64, id int) []Event {
	if rate <= 0 {
		return out
	}
	t := from
	for {
		t += rng.ExpFloat64() / rate
		if t >= from+period {
			return out
		}
		out = append(out, Event{Time: t, ID: id})
	}
}
