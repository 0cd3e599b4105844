// Package bridge exchanges state and reward with the external learning
// agent on the slow tick and applies its policy to the control vector.
package bridge

import (
	"fmt"
	"math"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

// Transport is the event transport of the external agent. TickAdvance is
// the only call allowed to block; it flushes events sent since the last
// tick and delivers incoming events up to the returned time.
type Transport interface {
	TickAdvance() (float64, error)
	CurrentTime() float64
	SendVector(values []float64, t float64)
	SendScalar(value float64, t float64)
	Policy(t float64) float64
	ModulatoryActivity(t float64) float64
	ValueAndTDError(t, reward float64) (value, tdError float64)
}

// Gate exposes the trial state the bridge depends on.
type Gate interface {
	Holding() bool
	NetworkControl() bool
	BridgeReward() float64
}

// History gives access to states recorded by fast-tick index.
type History interface {
	StateAt(i int) dynamo.State
}

type Config struct {
	FastStep   float64 `yaml:"fast_step"`
	SlowPeriod float64 `yaml:"slow_period"`
	// Warmup delays state transmission until the agent has settled.
	Warmup       float64 `yaml:"warmup"`
	InitialValue float64 `yaml:"initial_value"`
}

func DefaultConfig() Config {
	return Config{
		FastStep:     1e-3,
		SlowPeriod:   1e-2,
		Warmup:       1.0,
		InitialValue: -70,
	}
}

// Signals is the agent output of the latest exchange.
type Signals struct {
	Time       float64 `json:"time"`
	Policy     float64 `json:"policy"`
	Modulatory float64 `json:"modulatory"`
	Value      float64 `json:"value"`
	TDError    float64 `json:"td_error"`
}

type Bridge struct {
	transport   Transport
	gate        Gate
	ratio       int
	warmupTicks int
	signals     Signals
	fired       int
}

func New(transport Transport, gate Gate, cfg Config) (*Bridge, error) {
	ratio, err := Ratio(cfg.SlowPeriod, cfg.FastStep)
	if err != nil {
		return nil, err
	}
	if cfg.Warmup < 0 {
		return nil, fmt.Errorf("%w: warmup must not be negative", dynamo.ErrParameterBounds)
	}
	return &Bridge{
		transport:   transport,
		gate:        gate,
		ratio:       ratio,
		warmupTicks: int(math.Round(cfg.Warmup / cfg.FastStep)),
		signals:     Signals{Value: cfg.InitialValue},
	}, nil
}

// Ratio returns slow/fast as an integer, rejecting periods that are not an
// exact multiple of the fast step.
func Ratio(slow, fast float64) (int, error) {
	if fast <= 0 || slow <= 0 {
		return 0, fmt.Errorf("%w: periods must be positive (slow=%g, fast=%g)", dynamo.ErrParameterBounds, slow, fast)
	}
	r := slow / fast
	n := math.Round(r)
	if n < 1 || math.Abs(r-n) > 1e-9*n {
		return 0, fmt.Errorf("%w: slow period %g is not a multiple of fast step %g", dynamo.ErrParameterBounds, slow, fast)
	}
	return int(n), nil
}

func (b *Bridge) Ratio() int { return b.ratio }

// Due reports whether fast tick i is a slow-tick boundary.
func (b *Bridge) Due(i int) bool { return i > 0 && i%b.ratio == 0 }

func (b *Bridge) Signals() Signals { return b.signals }

// Fired counts completed exchanges.
func (b *Bridge) Fired() int { return b.fired }

// Exchange runs one slow-tick activation at fast tick i. The agent sees the
// state recorded one slow period earlier, the one that produced the reward
// being delivered. u is modified in place when network control is on.
func (b *Bridge) Exchange(i int, hist History, u dynamo.Control) (Signals, error) {
	prev := hist.StateAt(i - b.ratio)
	t := b.transport.CurrentTime()

	if i >= b.warmupTicks {
		b.transport.SendVector(prev, t)
	}
	b.transport.SendScalar(b.signals.TDError, t)

	now, err := b.transport.TickAdvance()
	if err != nil {
		return b.signals, fmt.Errorf("%w: tick at t=%.4f: %w", dynamo.ErrTransport, t, err)
	}

	reward := b.gate.BridgeReward()
	sig := Signals{
		Time:       now,
		Policy:     b.transport.Policy(now),
		Modulatory: b.transport.ModulatoryActivity(now),
	}
	sig.Value, sig.TDError = b.transport.ValueAndTDError(now, reward)

	if b.gate.Holding() {
		sig.TDError = 0
	}

	b.signals = sig
	b.fired++
	b.Apply(u)
	return sig, nil
}

// Apply substitutes the held policy for the roll torque when network control
// is on. The policy is held between exchanges and is zero before the first.
func (b *Bridge) Apply(u dynamo.Control) {
	if b.gate.NetworkControl() {
		u[dynamo.TorqueX] = b.signals.Policy
	}
}
