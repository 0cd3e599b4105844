package agent

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var ErrClosed = errors.New("transport closed")

// Scalar is one value sent on the scalar port.
type Scalar struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Responder stands in for the remote network. It sees everything flushed in
// one tick and may emit spikes into the receiver.
type Responder interface {
	Respond(from, to float64, events []Event, scalars []Scalar, out SpikeHandler)
}

type LoopbackConfig struct {
	Period float64 `yaml:"period"`
	// Background rates in Hz of the critic, actor and dopaminergic
	// populations when nothing else drives them.
	Background [3]float64 `yaml:"background"`
	Seed       int64      `yaml:"seed"`
}

func DefaultLoopbackConfig() LoopbackConfig {
	return LoopbackConfig{
		Period:     1e-2,
		Background: [3]float64{20, 10, 5},
	}
}

// Loopback is an in-process Transport. Each tick advances time by one
// period, hands the queued outgoing events to the responder and fills the
// receiver with seeded background activity.
type Loopback struct {
	cfg       LoopbackConfig
	sender    *Sender
	receiver  *Receiver
	responder Responder
	rng       *rand.Rand

	now     float64
	outbox  []Event
	scalars []Scalar
	last    []Event
	sent    int
	closed  bool
}

type LoopbackOption func(*Loopback)

func WithResponder(r Responder) LoopbackOption {
	return func(l *Loopback) { l.responder = r }
}

func NewLoopback(cfg LoopbackConfig, s *Sender, r *Receiver, opts ...LoopbackOption) (*Loopback, error) {
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("loopback period must be positive, got %g", cfg.Period)
	}
	if s == nil || r == nil {
		return nil, errors.New("loopback needs a sender and a receiver")
	}
	for i, bg := range cfg.Background {
		if bg < 0 {
			return nil, fmt.Errorf("background rate of population %d is negative", i)
		}
	}
	l := &Loopback{
		cfg:      cfg,
		sender:   s,
		receiver: r,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Loopback) CurrentTime() float64 { return l.now }

func (l *Loopback) SendVector(values []float64, t float64) {
	l.outbox = append(l.outbox, l.sender.Encode(values, t, l.cfg.Period)...)
}

func (l *Loopback) SendScalar(value float64, t float64) {
	l.scalars = append(l.scalars, Scalar{Time: t, Value: value})
}

func (l *Loopback) TickAdvance() (float64, error) {
	if l.closed {
		return l.now, ErrClosed
	}
	from := l.now
	l.now += l.cfg.Period

	var in []Event
	for pop, rate := range l.cfg.Background {
		for n := 0; n < l.receiver.cfg.Sizes[pop]; n++ {
			in = appendPoisson(in, l.rng, rate, from, l.cfg.Period, l.receiver.bounds[pop]+n)
		}
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Time < in[j].Time })
	for _, ev := range in {
		l.receiver.HandleSpike(ev.Time, ev.ID)
	}

	if l.responder != nil {
		l.responder.Respond(from, l.now, l.outbox, l.scalars, l.receiver)
	}

	l.sent += len(l.outbox)
	l.last = append(l.last[:0], l.outbox...)
	l.outbox = l.outbox[:0]
	l.scalars = l.scalars[:0]
	return l.now, nil
}

func (l *Loopback) Policy(t float64) float64 { return l.receiver.Action(t) }

func (l *Loopback) ModulatoryActivity(t float64) float64 { return l.receiver.Dopa(t) }

func (l *Loopback) ValueAndTDError(t, reward float64) (float64, float64) {
	return l.receiver.Value(t, reward)
}

// LastFlushed returns the events flushed by the previous tick.
func (l *Loopback) LastFlushed() []Event {
	out := make([]Event, len(l.last))
	copy(out, l.last)
	return out
}

// Sent counts every event flushed so far.
func (l *Loopback) Sent() int { return l.sent }

func (l *Loopback) Close() error {
	l.closed = true
	return nil
}
