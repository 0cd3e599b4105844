package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "rk4", cfg.Integrator)
	assert.Len(t, cfg.Initial, dynamo.StateDim)
	assert.Equal(t, DefaultAltitude, cfg.Desired[dynamo.PosZ])
	assert.Zero(t, cfg.Envelope.Cage)
	assert.True(t, cfg.Trial.NetworkControl)

	cfg.Sync()
	assert.InDelta(t, DefaultAltitude*DefaultAltitude, cfg.Envelope.Cage, 1e-15)
}

func TestSyncCageFollowsDesired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Desired[dynamo.PosZ] = 0.1
	cfg.Sync()
	assert.InDelta(t, 0.01, cfg.Envelope.Cage, 1e-15, "cage tracks an overridden desired altitude")
	require.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Envelope.Cage = 0.5
	cfg.Desired[dynamo.PosZ] = 0.1
	cfg.Sync()
	assert.Equal(t, 0.5, cfg.Envelope.Cage, "explicit cage is kept")
}

func TestLoadDesiredDerivesCage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desired.yaml")
	require.NoError(t, os.WriteFile(path, []byte("desired: [0, 0, 0, 0, 0, 0.2, 0, 0, 0, 0, 0, 0]\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Sync()
	assert.InDelta(t, 0.04, cfg.Envelope.Cage, 1e-15)
}

func TestSync(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 5e-4
	cfg.Bridge.SlowPeriod = 2e-2
	cfg.Seed = 9
	cfg.Sync()

	assert.Equal(t, 5e-4, cfg.Vehicle.Dt)
	assert.Equal(t, 5e-4, cfg.Trial.FastStep)
	assert.Equal(t, 5e-4, cfg.Bridge.FastStep)
	assert.Equal(t, 2e-2, cfg.Receiver.Window)
	assert.Equal(t, 2e-2, cfg.Loopback.Period)
	assert.Equal(t, int64(9), cfg.Sender.Seed)
	assert.NotEqual(t, cfg.Sender.Seed, cfg.Loopback.Seed)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"zero duration", func(c *Config) { c.Duration = 0 }},
		{"unknown integrator", func(c *Config) { c.Integrator = "verlet" }},
		{"short initial", func(c *Config) { c.Initial = c.Initial[:6] }},
		{"short desired", func(c *Config) { c.Desired = nil }},
		{"fractional ratio", func(c *Config) { c.Bridge.SlowPeriod = 2.5e-3 * 1.1 }},
		{"negative cage", func(c *Config) { c.Envelope.Cage = -1 }},
		{"grounded desired", func(c *Config) { c.Desired[dynamo.PosZ] = 0 }},
		{"massless", func(c *Config) { c.Vehicle.Mass = 0 }},
		{"zero inertia", func(c *Config) { c.Vehicle.Inertia[2] = 0 }},
		{"place field", func(c *Config) { c.Sender.Fields[0].StateID = 12 }},
		{"rank", func(c *Config) { c.Comm.Rank = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := DefaultConfig()
	cfg.Duration = 2.5
	cfg.Trial.StartupHold = 1
	cfg.Comm.Size = 2
	cfg.Comm.Rank = 1
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("duration: 4\ntrial:\n  hold_duration: 0.5\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Duration)
	assert.Equal(t, 0.5, cfg.Trial.HoldDuration)
	assert.Equal(t, -50.0, cfg.Trial.Punishment, "unset keys keep their defaults")
	assert.Equal(t, "rk4", cfg.Integrator)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("duration: [1, 2\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"hover", "robobrain", "tumble"}, ListPresets())
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.NoError(t, cfg.Validate(), name)
	}

	assert.Nil(t, GetPreset("nonexistent"))
	assert.Equal(t, 2.0, GetPreset("robobrain").Trial.StartupHold)
	assert.False(t, GetPreset("hover").Trial.NetworkControl)

	a := GetPreset("hover")
	a.Duration = 99
	assert.NotEqual(t, 99.0, GetPreset("hover").Duration, "presets are fresh copies")
}
