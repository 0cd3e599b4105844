package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingResponder struct {
	calls   int
	events  int
	scalars []Scalar
	reply   []int
}

func (r *recordingResponder) Respond(from, to float64, events []Event, scalars []Scalar, out SpikeHandler) {
	r.calls++
	r.events += len(events)
	r.scalars = append(r.scalars, scalars...)
	for _, id := range r.reply {
		out.HandleSpike(to, id)
	}
}

func newLoopback(t *testing.T, cfg LoopbackConfig, opts ...LoopbackOption) *Loopback {
	t.Helper()
	s, err := NewSender(DefaultSenderConfig(), Single())
	require.NoError(t, err)
	r, err := NewReceiver(DefaultReceiverConfig())
	require.NoError(t, err)
	l, err := NewLoopback(cfg, s, r, opts...)
	require.NoError(t, err)
	return l
}

func TestLoopbackAdvancesTime(t *testing.T) {
	l := newLoopback(t, DefaultLoopbackConfig())
	assert.Zero(t, l.CurrentTime())

	for k := 1; k <= 3; k++ {
		now, err := l.TickAdvance()
		require.NoError(t, err)
		assert.InDelta(t, float64(k)*0.01, now, 1e-12)
	}
	assert.InDelta(t, 0.03, l.CurrentTime(), 1e-12)
}

func TestLoopbackFlushesOutbox(t *testing.T) {
	resp := &recordingResponder{}
	l := newLoopback(t, DefaultLoopbackConfig(), WithResponder(resp))

	l.SendVector(stateWith(0, 0), l.CurrentTime())
	l.SendScalar(1.5, l.CurrentTime())
	_, err := l.TickAdvance()
	require.NoError(t, err)

	assert.Equal(t, 1, resp.calls)
	assert.NotZero(t, resp.events)
	assert.Equal(t, []Scalar{{Time: 0, Value: 1.5}}, resp.scalars)
	assert.Len(t, l.LastFlushed(), resp.events)
	assert.Equal(t, resp.events, l.Sent())

	_, err = l.TickAdvance()
	require.NoError(t, err)
	assert.Empty(t, l.LastFlushed(), "outbox drains every tick")
	assert.Equal(t, resp.events, l.Sent())
}

func TestLoopbackSilentReadout(t *testing.T) {
	cfg := DefaultLoopbackConfig()
	cfg.Background = [3]float64{}
	l := newLoopback(t, cfg)

	now, err := l.TickAdvance()
	require.NoError(t, err)

	assert.Zero(t, l.Policy(now))
	assert.Zero(t, l.ModulatoryActivity(now))
	v, _ := l.ValueAndTDError(now, 0)
	assert.Equal(t, DefaultReceiverConfig().Critic.Offset, v)
}

func TestLoopbackResponderDrivesPolicy(t *testing.T) {
	cfg := DefaultLoopbackConfig()
	cfg.Background = [3]float64{}
	resp := &recordingResponder{reply: []int{50 + 59}}
	l := newLoopback(t, cfg, WithResponder(resp))

	now, err := l.TickAdvance()
	require.NoError(t, err)
	assert.InDelta(t, DefaultReceiverConfig().Actor.FMax, l.Policy(now), 1e-15)
}

func TestLoopbackSeeded(t *testing.T) {
	cfg := DefaultLoopbackConfig()
	cfg.Seed = 3
	a := newLoopback(t, cfg)
	b := newLoopback(t, cfg)

	for k := 0; k < 20; k++ {
		na, err := a.TickAdvance()
		require.NoError(t, err)
		nb, err := b.TickAdvance()
		require.NoError(t, err)
		assert.Equal(t, a.Policy(na), b.Policy(nb))
		assert.Equal(t, a.ModulatoryActivity(na), b.ModulatoryActivity(nb))
	}
}

func TestLoopbackBackgroundActivity(t *testing.T) {
	l := newLoopback(t, DefaultLoopbackConfig())

	total := 0.0
	const n = 200
	for k := 0; k < n; k++ {
		now, err := l.TickAdvance()
		require.NoError(t, err)
		total += l.ModulatoryActivity(now)
	}
	assert.InDelta(t, 5.0, total/n, 1.0, "dopaminergic background rate")
}

func TestLoopbackClose(t *testing.T) {
	l := newLoopback(t, DefaultLoopbackConfig())
	require.NoError(t, l.Close())

	_, err := l.TickAdvance()
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestNewLoopbackRejects(t *testing.T) {
	s, _ := NewSender(DefaultSenderConfig(), Single())
	r, _ := NewReceiver(DefaultReceiverConfig())

	cfg := DefaultLoopbackConfig()
	cfg.Period = 0
	_, err := NewLoopback(cfg, s, r)
	assert.Error(t, err)

	_, err = NewLoopback(DefaultLoopbackConfig(), nil, r)
	assert.Error(t, err)

	cfg = DefaultLoopbackConfig()
	cfg.Background[2] = -1
	_, err = NewLoopback(cfg, s, r)
	assert.Error(t, err)
}
