package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nash169/RoboBrain/internal/agent"
	"github.com/nash169/RoboBrain/internal/bridge"
	"github.com/nash169/RoboBrain/internal/control"
	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/nash169/RoboBrain/internal/integrators"
	"github.com/nash169/RoboBrain/internal/trial"
)

const (
	DefaultDt         = 1e-3
	DefaultSlowPeriod = 1e-2
	DefaultDuration   = 10.0
	DefaultAltitude   = 0.08
)

type Config struct {
	Integrator string    `yaml:"integrator"`
	Dt         float64   `yaml:"dt"`
	Duration   float64   `yaml:"duration"`
	Seed       int64     `yaml:"seed"`
	Initial    []float64 `yaml:"initial"`
	Desired    []float64 `yaml:"desired"`

	Vehicle  control.Params       `yaml:"vehicle"`
	// Envelope.Cage of zero is derived from the desired altitude by Sync.
	Envelope trial.Envelope       `yaml:"envelope"`
	Trial    trial.Config         `yaml:"trial"`
	Bridge   bridge.Config        `yaml:"bridge"`
	Sender   agent.SenderConfig   `yaml:"sender"`
	Receiver agent.ReceiverConfig `yaml:"receiver"`
	Loopback agent.LoopbackConfig `yaml:"loopback"`
	Comm     agent.Comm           `yaml:"comm"`

	// UprightTolerance is the tilt counted as upright by the metrics.
	UprightTolerance float64 `yaml:"upright_tolerance"`
}

// DefaultInitial is the tilted, low start used by the learning experiments.
func DefaultInitial() []float64 {
	return []float64{0.2, -0.2, 0, 0, 0, 1, 0.04, 0.04, 0.01, 0.1, -0.3, 0}
}

func DefaultDesired() []float64 {
	x := make([]float64, dynamo.StateDim)
	x[dynamo.PosZ] = DefaultAltitude
	return x
}

func DefaultConfig() *Config {
	desired := DefaultDesired()
	env := trial.DefaultEnvelope(desired)
	env.Cage = 0
	return &Config{
		Integrator:       "rk4",
		Dt:               DefaultDt,
		Duration:         DefaultDuration,
		Initial:          DefaultInitial(),
		Desired:          desired,
		Vehicle:          control.DefaultParams(),
		Envelope:         env,
		Trial:            trial.DefaultConfig(),
		Bridge:           bridge.DefaultConfig(),
		Sender:           agent.DefaultSenderConfig(),
		Receiver:         agent.DefaultReceiverConfig(),
		Loopback:         agent.DefaultLoopbackConfig(),
		Comm:             agent.Single(),
		UprightTolerance: 0.5,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Sync copies the shared timing and seed into the component sections so
// they cannot drift apart.
func (c *Config) Sync() {
	c.Vehicle.Dt = c.Dt
	c.Trial.FastStep = c.Dt
	c.Bridge.FastStep = c.Dt
	c.Receiver.Window = c.Bridge.SlowPeriod
	c.Loopback.Period = c.Bridge.SlowPeriod
	c.Sender.Seed = c.Seed
	c.Loopback.Seed = c.Seed + 1
	c.Envelope = c.envelope()
}

// envelope fills a zero cage from the desired altitude.
func (c *Config) envelope() trial.Envelope {
	env := c.Envelope
	if env.Cage == 0 && len(c.Desired) > dynamo.PosZ {
		z := c.Desired[dynamo.PosZ]
		env.Cage = z * z
	}
	return env
}

func (c *Config) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrParameterBounds, c.Duration)
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return err
	}
	if err := dynamo.State(c.Initial).CheckDim(); err != nil {
		return fmt.Errorf("initial: %w", err)
	}
	if err := dynamo.State(c.Desired).CheckDim(); err != nil {
		return fmt.Errorf("desired: %w", err)
	}
	if _, err := bridge.Ratio(c.Bridge.SlowPeriod, c.Dt); err != nil {
		return err
	}
	if err := c.envelope().Validate(); err != nil {
		return err
	}
	if c.Vehicle.Mass <= 0 || c.Vehicle.MaxThrust <= 0 || c.Vehicle.MaxTorque <= 0 {
		return fmt.Errorf("%w: vehicle mass and actuator limits must be positive", dynamo.ErrParameterBounds)
	}
	for i, v := range c.Vehicle.Inertia {
		if v <= 0 {
			return fmt.Errorf("%w: inertia[%d] must be positive", dynamo.ErrParameterBounds, i)
		}
	}
	for _, f := range c.Sender.Fields {
		if f.StateID < 0 || f.StateID >= dynamo.StateDim {
			return fmt.Errorf("%w: place field state id %d", dynamo.ErrDimensionMismatch, f.StateID)
		}
	}
	return c.Comm.Validate()
}
