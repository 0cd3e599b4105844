package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/nash169/RoboBrain/internal/agent"
	"github.com/nash169/RoboBrain/internal/bridge"
	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/nash169/RoboBrain/internal/trial"
)

// Driver composes regulator, bridge, plant and supervisor into the
// dual-rate loop. It is single-threaded; the only blocking call is the
// transport tick inside the bridge.
type Driver struct {
	plant      Plant
	regulator  Regulator
	supervisor *trial.Supervisor
	bridge     *bridge.Bridge
	initial    dynamo.State
	desired    dynamo.State
	comm       agent.Comm
	logger     *zap.Logger
	metrics    []dynamo.Metric
	observers  []Observer
	records    []Record
}

type Option func(*Driver)

func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithComm labels the driver with its rank in a multi-process run.
func WithComm(c agent.Comm) Option {
	return func(d *Driver) { d.comm = c }
}

// WithDesired records the regulation target in the result.
func WithDesired(x dynamo.State) Option {
	return func(d *Driver) { d.desired = x.Clone() }
}

func New(plant Plant, reg Regulator, sup *trial.Supervisor, br *bridge.Bridge, initial dynamo.State, opts ...Option) *Driver {
	d := &Driver{
		plant:      plant,
		regulator:  reg,
		supervisor: sup,
		bridge:     br,
		initial:    initial.Clone(),
		comm:       agent.Single(),
		logger:     zap.NewNop(),
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	sup.OnTrial(func(r trial.Record) {
		d.logger.Info("trial ended",
			zap.Int("trial", r.Number),
			zap.Float64("start", r.Start),
			zap.Float64("duration", r.Duration))
	})
	return d
}

func (d *Driver) AddMetric(m dynamo.Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer)        { d.observers = append(d.observers, o) }
func (d *Driver) Supervisor() *trial.Supervisor { return d.supervisor }

// StateAt returns the state at time i*dt of the current run. Index 0 is
// the initial state.
func (d *Driver) StateAt(i int) dynamo.State {
	if i <= 0 {
		return d.initial
	}
	return d.records[i-1].State
}

// Steps returns the number of fast ticks in a run: enough for
// floor(duration/slowPeriod) exchanges, the last one on the final tick.
func (d *Driver) Steps(cfg Config) int {
	ratio := d.bridge.Ratio()
	slow := float64(ratio) * cfg.FastStep
	exchanges := int(math.Floor(cfg.Duration/slow + 1e-9))
	return exchanges*ratio + 1
}

func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := d.validate(cfg); err != nil {
		return nil, err
	}

	steps := d.Steps(cfg)
	d.records = make([]Record, 0, steps)
	for _, m := range d.metrics {
		m.Reset()
	}

	result := &Result{
		Initial: d.initial.Clone(),
		Desired: d.desired,
		Metrics: make(map[string]float64),
		Rank:    d.comm.Rank,
		Size:    d.comm.Size,
	}

	d.logger.Info("run started",
		zap.Int("steps", steps),
		zap.Int("ratio", d.bridge.Ratio()),
		zap.Float64("duration", cfg.Duration),
		zap.Int("rank", d.comm.Rank))

	x := d.initial.Clone()
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return d.fail(result, ctx.Err())
		default:
		}

		t := float64(i) * cfg.FastStep

		u := d.regulator.Compute(x, t)

		exchanged := false
		if d.bridge.Due(i) {
			if _, err := d.bridge.Exchange(i, d, u); err != nil {
				return d.fail(result, &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err})
			}
			exchanged = true
		}
		d.bridge.Apply(u)

		next, err := d.plant.Advance(x, u)
		if err != nil {
			return d.fail(result, &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(),
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrPlant, err)})
		}

		reward := d.supervisor.Shape(next)
		d.supervisor.Check(t, next)

		if d.supervisor.Holding() {
			next = d.initial.Clone()
			if err := d.plant.ForceState(next); err != nil {
				return d.fail(result, &dynamo.SimulationError{Step: i, Time: t, State: next,
					Wrapped: fmt.Errorf("%w: %w", dynamo.ErrPlant, err)})
			}
			d.regulator.Reset()
			d.supervisor.Tick()
		}
		x = next

		rec := Record{
			Index:    i,
			Time:     t + cfg.FastStep,
			State:    x.Clone(),
			Control:  u,
			Reward:   reward,
			Signals:  d.bridge.Signals(),
			Holding:  d.supervisor.Holding(),
			Exchange: exchanged,
		}
		d.records = append(d.records, rec)

		for _, m := range d.metrics {
			m.Observe(x, u, rec.Time)
		}
		for _, o := range d.observers {
			o.OnRecord(rec)
		}
	}

	result.Records = d.records
	result.Trials = d.supervisor.Records()
	result.Exchanges = d.bridge.Fired()
	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	d.logger.Info("run finished",
		zap.Int("trials", len(result.Trials)),
		zap.Int("exchanges", result.Exchanges))

	return result, nil
}

// fail returns the partial result alongside err.
func (d *Driver) fail(result *Result, err error) (*Result, error) {
	result.Records = d.records
	result.Trials = d.supervisor.Records()
	result.Exchanges = d.bridge.Fired()
	d.logger.Error("run aborted", zap.Int("records", len(d.records)), zap.Error(err))
	return result, err
}

func (d *Driver) validate(cfg Config) error {
	if cfg.FastStep <= 0 {
		return fmt.Errorf("%w: fast step must be positive, got %g", dynamo.ErrParameterBounds, cfg.FastStep)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrParameterBounds, cfg.Duration)
	}
	return d.initial.CheckDim()
}
