package trial

import (
	"fmt"
	"math"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

type Phase int

const (
	Running Phase = iota
	Hold
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Hold:
		return "hold"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type Config struct {
	FastStep     float64 `yaml:"fast_step"`
	HoldDuration float64 `yaml:"hold_duration"`
	// StartupHold pins the plant before the first trial; zero starts running.
	StartupHold    float64 `yaml:"startup_hold"`
	Punishment     float64 `yaml:"punishment"`
	RewardScale    float64 `yaml:"reward_scale"`
	NetworkControl bool    `yaml:"network_control"`
}

func DefaultConfig() Config {
	return Config{
		FastStep:       1e-3,
		HoldDuration:   0.2,
		Punishment:     -50,
		RewardScale:    50,
		NetworkControl: true,
	}
}

// Record is one finished trial.
type Record struct {
	Number   int     `json:"number"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Supervisor tracks the current trial. The hold countdown is kept in whole
// fast ticks: remaining >= 0 while holding, -1 when inactive.
type Supervisor struct {
	cfg     Config
	env     Envelope
	desired dynamo.State

	holdTicks int
	remaining int

	trialStart float64
	punished   bool
	pending    bool
	lastReward float64
	netControl bool

	records []Record
	onTrial func(Record)
}

func New(cfg Config, env Envelope, desired dynamo.State) (*Supervisor, error) {
	if cfg.FastStep <= 0 {
		return nil, fmt.Errorf("%w: fast step must be positive, got %g", dynamo.ErrParameterBounds, cfg.FastStep)
	}
	if cfg.HoldDuration < 0 || cfg.StartupHold < 0 {
		return nil, fmt.Errorf("%w: hold durations must not be negative", dynamo.ErrParameterBounds)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if err := desired.CheckDim(); err != nil {
		return nil, err
	}

	s := &Supervisor{
		cfg:        cfg,
		env:        env,
		desired:    desired.Clone(),
		holdTicks:  ticks(cfg.HoldDuration, cfg.FastStep),
		remaining:  -1,
		netControl: cfg.NetworkControl,
	}
	if cfg.StartupHold > 0 {
		s.remaining = ticks(cfg.StartupHold, cfg.FastStep)
		s.trialStart = cfg.StartupHold
	}
	s.lastReward = cfg.RewardScale * math.Cos(desired[dynamo.Tilt])
	return s, nil
}

func ticks(d, step float64) int {
	return int(math.Round(d / step))
}

// OnTrial registers fn to be called with every finished trial.
func (s *Supervisor) OnTrial(fn func(Record)) { s.onTrial = fn }

func (s *Supervisor) Phase() Phase {
	if s.Holding() {
		return Hold
	}
	return Running
}

func (s *Supervisor) Holding() bool { return s.remaining >= 0 }

// Countdown returns the remaining hold time; negative once inactive.
func (s *Supervisor) Countdown() float64 {
	return float64(s.remaining) * s.cfg.FastStep
}

func (s *Supervisor) Envelope() Envelope { return s.env }

func (s *Supervisor) Trials() int { return len(s.records) }

func (s *Supervisor) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Supervisor) TrialStart() float64 { return s.trialStart }

func (s *Supervisor) NetworkControl() bool { return s.netControl }

func (s *Supervisor) SetNetworkControl(on bool) { s.netControl = on }

// Shape returns this tick's reward. A pending punishment is emitted once;
// otherwise the reward peaks when the vehicle is upright.
func (s *Supervisor) Shape(x dynamo.State) float64 {
	if s.punished {
		s.punished = false
		s.pending = true
		s.lastReward = s.cfg.Punishment
		return s.lastReward
	}
	s.lastReward = s.cfg.RewardScale * math.Cos(x[dynamo.Tilt])
	return s.lastReward
}

// BridgeReward returns the reward for the next slow exchange. A punishment
// emitted since the previous exchange takes precedence over later rewards.
func (s *Supervisor) BridgeReward() float64 {
	if s.pending {
		s.pending = false
		return s.cfg.Punishment
	}
	return s.lastReward
}

// Check runs the envelope test on the state produced at time now and starts
// a hold on violation. It reports whether a new trial ended. States seen
// while already holding are ignored.
func (s *Supervisor) Check(now float64, x dynamo.State) bool {
	if s.Holding() || !s.env.Violated(x, s.desired) {
		return false
	}

	rec := Record{
		Number:   len(s.records),
		Start:    s.trialStart,
		End:      now,
		Duration: now - s.trialStart,
	}
	s.records = append(s.records, rec)

	s.punished = true
	s.remaining = s.holdTicks
	s.trialStart = now + s.cfg.HoldDuration

	if s.onTrial != nil {
		s.onTrial(rec)
	}
	return true
}

// Tick consumes one fast step of an active hold.
func (s *Supervisor) Tick() {
	if s.remaining >= 0 {
		s.remaining--
	}
}
