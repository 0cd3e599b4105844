package agent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWith(tilt, rate float64) []float64 {
	x := make([]float64, 12)
	x[0] = tilt
	x[3] = rate
	return x
}

func TestSenderRates(t *testing.T) {
	s, err := NewSender(DefaultSenderConfig(), Single())
	require.NoError(t, err)
	require.Equal(t, 14, s.Width())

	rates := s.Rates(stateWith(0, 0))
	assert.InDelta(t, 500, rates[0], 1e-9, "angle cell centered on zero")
	assert.InDelta(t, 500, rates[7+3], 1e-9, "rate cell centered on zero")
	for i, r := range rates {
		assert.GreaterOrEqual(t, r, 0.0, "cell %d", i)
		assert.LessOrEqual(t, r, 500.0, "cell %d", i)
	}
}

func TestSenderAngularWrap(t *testing.T) {
	s, err := NewSender(DefaultSenderConfig(), Single())
	require.NoError(t, err)

	a := s.Rates(stateWith(0.01, 0))
	b := s.Rates(stateWith(0.01+2*math.Pi, 0))
	c := s.Rates(stateWith(0.01-2*math.Pi, 0))
	for i := 0; i < 7; i++ {
		assert.InDelta(t, a[i], b[i], 1e-9)
		assert.InDelta(t, a[i], c[i], 1e-9)
	}

	near := s.Rates(stateWith(2*math.Pi-0.01, 0))
	assert.Greater(t, near[0], near[3], "angle just below 2pi is close to the zero cell")
}

func TestSenderEncodeOwnedChannels(t *testing.T) {
	cfg := DefaultSenderConfig()
	s, err := NewSender(cfg, Comm{Rank: 1, Size: 2})
	require.NoError(t, err)

	owned := Index{First: cfg.FirstID + 7, Count: 7}
	events := s.Encode(stateWith(0, 0), 1.0, 0.01)
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.True(t, owned.Contains(ev.ID), "id %d outside rank slice", ev.ID)
		assert.GreaterOrEqual(t, ev.Time, 1.0)
		assert.Less(t, ev.Time, 1.01)
	}
}

func TestSenderSeeded(t *testing.T) {
	cfg := DefaultSenderConfig()
	cfg.Seed = 11
	a, err := NewSender(cfg, Single())
	require.NoError(t, err)
	b, err := NewSender(cfg, Single())
	require.NoError(t, err)

	x := stateWith(0.3, -1)
	for k := 0; k < 5; k++ {
		from := float64(k) * 0.01
		assert.Equal(t, a.Encode(x, from, 0.01), b.Encode(x, from, 0.01))
	}
}

func TestSenderMeanRate(t *testing.T) {
	cfg := DefaultSenderConfig()
	cfg.Fields = cfg.Fields[:1]
	cfg.Fields[0].Resolution = 1
	s, err := NewSender(cfg, Single())
	require.NoError(t, err)

	n := len(s.Encode(stateWith(0, 0), 0, 100))
	assert.InDelta(t, 500*100, n, 1000, "Poisson count should match the peak rate")
}

func TestNewSenderRejects(t *testing.T) {
	cfg := DefaultSenderConfig()
	cfg.MaxRate = 0
	_, err := NewSender(cfg, Single())
	assert.Error(t, err)

	cfg = DefaultSenderConfig()
	cfg.Fields[1].Resolution = 0
	_, err = NewSender(cfg, Single())
	assert.Error(t, err)
}
