// Package experiment assembles a complete simulation from a configuration.
package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nash169/RoboBrain/internal/agent"
	"github.com/nash169/RoboBrain/internal/bridge"
	"github.com/nash169/RoboBrain/internal/config"
	"github.com/nash169/RoboBrain/internal/control"
	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/nash169/RoboBrain/internal/integrators"
	"github.com/nash169/RoboBrain/internal/metrics"
	"github.com/nash169/RoboBrain/internal/physics"
	"github.com/nash169/RoboBrain/internal/sim"
	"github.com/nash169/RoboBrain/internal/trial"
)

// Experiment owns one run. It is not reusable once Run has been called.
type Experiment struct {
	cfg       config.Config
	driver    *sim.Driver
	transport *agent.Loopback
	reward    *metrics.MeanReward
}

func New(cfg *config.Config, logger *zap.Logger) (*Experiment, error) {
	c := *cfg
	c.Sync()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	initial := dynamo.State(c.Initial).Clone()
	desired := dynamo.State(c.Desired).Clone()

	bee := NewVehicle(c.Vehicle)
	integ, err := integrators.Get(c.Integrator)
	if err != nil {
		return nil, err
	}
	plant, err := physics.NewPlant(bee, integ, c.Dt, initial)
	if err != nil {
		return nil, err
	}

	sup, err := trial.New(c.Trial, c.Envelope, desired)
	if err != nil {
		return nil, err
	}

	sender, err := agent.NewSender(c.Sender, c.Comm)
	if err != nil {
		return nil, err
	}
	receiver, err := agent.NewReceiver(c.Receiver)
	if err != nil {
		return nil, err
	}
	transport, err := agent.NewLoopback(c.Loopback, sender, receiver)
	if err != nil {
		return nil, err
	}

	br, err := bridge.New(transport, sup, c.Bridge)
	if err != nil {
		return nil, err
	}

	driver := sim.New(plant, control.NewFeedback(desired, c.Vehicle), sup, br, initial,
		sim.WithLogger(logger),
		sim.WithComm(c.Comm),
		sim.WithDesired(desired))
	for _, m := range DefaultMetrics(&c) {
		driver.AddMetric(m)
	}
	reward := metrics.NewMeanReward()
	driver.AddObserver(reward)

	return &Experiment{
		cfg:       c,
		driver:    driver,
		transport: transport,
		reward:    reward,
	}, nil
}

// NewVehicle builds the flight dynamics from the shared vehicle constants.
func NewVehicle(p control.Params) *physics.Robobee {
	bee := physics.NewRobobee()
	bee.Mass = p.Mass
	bee.Gravity = p.Gravity
	bee.Inertia = p.Inertia
	bee.LinearDrag = p.LinearDrag
	bee.AngularDrag = p.AngularDrag
	return bee
}

func DefaultMetrics(c *config.Config) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewControlEffort(),
		metrics.NewUpright(c.UprightTolerance),
		metrics.NewAltitudeError(c.Desired[dynamo.PosZ]),
	}
}

// Config returns the synchronized configuration the run uses.
func (e *Experiment) Config() config.Config { return e.cfg }

func (e *Experiment) Driver() *sim.Driver { return e.driver }

func (e *Experiment) Transport() *agent.Loopback { return e.transport }

func (e *Experiment) AddObserver(o sim.Observer) { e.driver.AddObserver(o) }

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	defer e.transport.Close()

	res, err := e.driver.Run(ctx, sim.Config{FastStep: e.cfg.Dt, Duration: e.cfg.Duration})
	if res != nil {
		if res.Metrics == nil {
			res.Metrics = make(map[string]float64)
		}
		res.Metrics[e.reward.Name()] = e.reward.Value()
	}
	return res, err
}
