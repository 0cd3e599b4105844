package bridge

import (
	"errors"
	"testing"

	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	vector []float64
	scalar float64
	t      float64
}

type fakeTransport struct {
	now     float64
	period  float64
	policy  float64
	td      float64
	vectors []sent
	scalars []sent
	rewards []float64
	fail    error
}

func (f *fakeTransport) TickAdvance() (float64, error) {
	if f.fail != nil {
		return f.now, f.fail
	}
	f.now += f.period
	return f.now, nil
}

func (f *fakeTransport) CurrentTime() float64 { return f.now }

func (f *fakeTransport) SendVector(values []float64, t float64) {
	f.vectors = append(f.vectors, sent{vector: append([]float64(nil), values...), t: t})
}

func (f *fakeTransport) SendScalar(value float64, t float64) {
	f.scalars = append(f.scalars, sent{scalar: value, t: t})
}

func (f *fakeTransport) Policy(t float64) float64             { return f.policy }
func (f *fakeTransport) ModulatoryActivity(t float64) float64 { return 3 }

func (f *fakeTransport) ValueAndTDError(t, reward float64) (float64, float64) {
	f.rewards = append(f.rewards, reward)
	return reward * 2, f.td
}

type fakeGate struct {
	holding bool
	net     bool
	reward  float64
}

func (g *fakeGate) Holding() bool         { return g.holding }
func (g *fakeGate) NetworkControl() bool  { return g.net }
func (g *fakeGate) BridgeReward() float64 { return g.reward }

type history []dynamo.State

func (h history) StateAt(i int) dynamo.State { return h[i] }

func makeHistory(n int) history {
	h := make(history, n)
	for i := range h {
		x := dynamo.NewState()
		x[0] = float64(i)
		h[i] = x
	}
	return h
}

func TestRatio(t *testing.T) {
	r, err := Ratio(0.01, 0.001)
	require.NoError(t, err)
	assert.Equal(t, 10, r)

	for _, tc := range []struct{ slow, fast float64 }{
		{0.0105, 0.001},
		{0.0005, 0.001},
		{0.01, 0},
		{-0.01, 0.001},
	} {
		_, err := Ratio(tc.slow, tc.fast)
		assert.ErrorIs(t, err, dynamo.ErrParameterBounds, "slow=%g fast=%g", tc.slow, tc.fast)
	}
}

func TestDue(t *testing.T) {
	b, err := New(&fakeTransport{}, &fakeGate{}, DefaultConfig())
	require.NoError(t, err)

	assert.False(t, b.Due(0))
	assert.False(t, b.Due(5))
	assert.True(t, b.Due(10))
	assert.True(t, b.Due(20))
	assert.False(t, b.Due(21))
}

func TestExchange_ObservesPreviousSlowBoundary(t *testing.T) {
	tr := &fakeTransport{period: 0.01, policy: 1e-6, td: 4}
	gate := &fakeGate{net: true, reward: 50}
	cfg := DefaultConfig()
	cfg.Warmup = 0
	b, err := New(tr, gate, cfg)
	require.NoError(t, err)

	u := dynamo.Control{1, 2, 3, 4}
	sig, err := b.Exchange(20, makeHistory(21), u)
	require.NoError(t, err)

	require.Len(t, tr.vectors, 1)
	assert.Equal(t, 10.0, tr.vectors[0].vector[0], "agent should see the state one slow period old")
	require.Len(t, tr.scalars, 1)
	assert.Zero(t, tr.scalars[0].scalar, "first exchange sends the initial TD error")

	assert.Equal(t, []float64{50}, tr.rewards)
	assert.Equal(t, Signals{Time: 0.01, Policy: 1e-6, Modulatory: 3, Value: 100, TDError: 4}, sig)
	assert.Equal(t, dynamo.Control{1, 1e-6, 3, 4}, u, "policy replaces the first torque only")
	assert.Equal(t, 1, b.Fired())

	_, err = b.Exchange(30, makeHistory(31), u)
	require.NoError(t, err)
	assert.Equal(t, 4.0, tr.scalars[1].scalar, "modulatory channel carries the last TD error")
}

func TestExchange_NetworkControlDisabled(t *testing.T) {
	tr := &fakeTransport{period: 0.01, policy: 123}
	b, err := New(tr, &fakeGate{net: false}, DefaultConfig())
	require.NoError(t, err)

	u := dynamo.Control{1, 2, 3, 4}
	for i := 10; i <= 100; i += 10 {
		_, err := b.Exchange(i, makeHistory(101), u)
		require.NoError(t, err)
	}
	assert.Equal(t, dynamo.Control{1, 2, 3, 4}, u)
}

func TestExchange_Warmup(t *testing.T) {
	tr := &fakeTransport{period: 0.01}
	cfg := DefaultConfig()
	cfg.Warmup = 0.02
	b, err := New(tr, &fakeGate{}, cfg)
	require.NoError(t, err)

	h := makeHistory(31)
	for _, i := range []int{10, 20, 30} {
		_, err := b.Exchange(i, h, dynamo.NewControl())
		require.NoError(t, err)
	}
	assert.Len(t, tr.vectors, 2, "no state before warmup")
	assert.Len(t, tr.scalars, 3, "modulatory channel is always fed")
}

func TestExchange_HoldZeroesTDError(t *testing.T) {
	tr := &fakeTransport{period: 0.01, td: 9}
	b, err := New(tr, &fakeGate{holding: true}, DefaultConfig())
	require.NoError(t, err)

	sig, err := b.Exchange(10, makeHistory(11), dynamo.NewControl())
	require.NoError(t, err)
	assert.Zero(t, sig.TDError)
	assert.Zero(t, b.Signals().TDError)
}

func TestExchange_TransportFailure(t *testing.T) {
	boom := errors.New("peer gone")
	tr := &fakeTransport{period: 0.01, fail: boom}
	b, err := New(tr, &fakeGate{net: true}, DefaultConfig())
	require.NoError(t, err)

	u := dynamo.Control{1, 2, 3, 4}
	_, err = b.Exchange(10, makeHistory(11), u)
	assert.ErrorIs(t, err, dynamo.ErrTransport)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, dynamo.Control{1, 2, 3, 4}, u)
	assert.Zero(t, b.Fired())
}

func TestInitialSignals(t *testing.T) {
	b, err := New(&fakeTransport{}, &fakeGate{}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, -70.0, b.Signals().Value)
}

func TestApply_HoldsPolicyBetweenExchanges(t *testing.T) {
	tr := &fakeTransport{period: 0.01, policy: 2e-6}
	gate := &fakeGate{net: true}
	b, err := New(tr, gate, DefaultConfig())
	require.NoError(t, err)

	u := dynamo.Control{1, 2, 3, 4}
	b.Apply(u)
	assert.Equal(t, dynamo.Control{1, 0, 3, 4}, u, "no policy before the first exchange")

	_, err = b.Exchange(10, makeHistory(11), dynamo.NewControl())
	require.NoError(t, err)
	tr.policy = 9

	for tick := 11; tick < 20; tick++ {
		u := dynamo.Control{1, 2, 3, 4}
		b.Apply(u)
		assert.Equal(t, 2e-6, u[dynamo.TorqueX], "tick %d", tick)
	}

	gate.net = false
	u = dynamo.Control{1, 2, 3, 4}
	b.Apply(u)
	assert.Equal(t, 2.0, u[dynamo.TorqueX])
}
