package physics

import (
	"fmt"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

// Plant steps a System with a fixed-step integrator and exposes the
// advance/force-state contract the simulation driver consumes.
type Plant struct {
	sys   dynamo.System
	integ dynamo.Integrator
	dt    float64
	t     float64
	x     dynamo.State
}

func NewPlant(sys dynamo.System, integ dynamo.Integrator, dt float64, x0 dynamo.State) (*Plant, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, dt)
	}
	if len(x0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d components, system wants %d",
			dynamo.ErrDimensionMismatch, len(x0), sys.StateDim())
	}
	return &Plant{sys: sys, integ: integ, dt: dt, x: x0.Clone()}, nil
}

// Advance integrates one step from x under u.
func (p *Plant) Advance(x dynamo.State, u dynamo.Control) (dynamo.State, error) {
	if len(u) != p.sys.ControlDim() {
		return nil, fmt.Errorf("%w: control has %d components, system wants %d",
			dynamo.ErrDimensionMismatch, len(u), p.sys.ControlDim())
	}
	next := p.integ.Step(p.sys, x, u, p.t, p.dt)
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: after step at t=%.4f", dynamo.ErrInvalidState, p.t)
	}
	p.t += p.dt
	p.x = next
	return next.Clone(), nil
}

// ForceState overrides the held state, used while a trial is reset.
func (p *Plant) ForceState(x dynamo.State) error {
	if len(x) != p.sys.StateDim() {
		return fmt.Errorf("%w: forced state has %d components", dynamo.ErrDimensionMismatch, len(x))
	}
	p.x = x.Clone()
	return nil
}

func (p *Plant) State() dynamo.State { return p.x.Clone() }

func (p *Plant) Time() float64 { return p.t }
