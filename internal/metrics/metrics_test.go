package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/nash169/RoboBrain/internal/sim"
)

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	assert.Zero(t, m.Value())

	u := dynamo.NewControl()
	u[dynamo.Thrust] = 1
	u[dynamo.TorqueX] = 3e-7
	u[dynamo.TorqueY] = 4e-7
	m.Observe(dynamo.NewState(), u, 0)
	m.Observe(dynamo.NewState(), dynamo.NewControl(), 0)

	assert.InDelta(t, 2.5e-7, m.Value(), 1e-18, "thrust is not effort")

	m.Reset()
	assert.Zero(t, m.Value())
}

func TestUpright(t *testing.T) {
	m := NewUpright(0.5)
	assert.Equal(t, 1.0, m.Value())

	x := dynamo.NewState()
	m.Observe(x, nil, 0)
	x[dynamo.Tilt] = -0.4
	m.Observe(x, nil, 0)
	x[dynamo.Tilt] = 0.6
	m.Observe(x, nil, 0)
	x[dynamo.Pitch] = 3
	x[dynamo.Tilt] = 0
	m.Observe(x, nil, 0)

	assert.InDelta(t, 0.75, m.Value(), 1e-12)
	m.Reset()
	assert.Equal(t, 1.0, m.Value())
}

func TestAltitudeError(t *testing.T) {
	m := NewAltitudeError(0.08)
	x := dynamo.NewState()
	x[dynamo.PosZ] = 0.1
	m.Observe(x, nil, 0)
	x[dynamo.PosZ] = 0.08
	m.Observe(x, nil, 0)
	assert.InDelta(t, 0.01, m.Value(), 1e-12)
}

func TestMeanReward(t *testing.T) {
	m := NewMeanReward()
	var obs sim.Observer = m
	obs.OnRecord(sim.Record{Reward: 50})
	obs.OnRecord(sim.Record{Reward: -50})
	obs.OnRecord(sim.Record{Reward: 30})
	assert.InDelta(t, 10, m.Value(), 1e-12)
	assert.Equal(t, "mean_reward", m.Name())
}

func TestMetricInterface(t *testing.T) {
	for _, m := range []dynamo.Metric{NewControlEffort(), NewUpright(0.1), NewAltitudeError(0.08)} {
		assert.NotEmpty(t, m.Name())
	}
}
