package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nash169/RoboBrain/internal/config"
	"github.com/nash169/RoboBrain/internal/dynamo"
)

func subcommand(t *testing.T, name string, args ...string) *cobra.Command {
	t.Helper()
	preset, configFile = "", ""
	root := newRootCmd()
	cmd, _, err := root.Find([]string{name})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := buildConfig(subcommand(t, "run"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestBuildConfigFlagsOverridePreset(t *testing.T) {
	cmd := subcommand(t, "run", "--preset", "hover", "--time", "2", "--roll", "0.2", "--no-network=false", "--size", "2", "--rank", "1")
	cfg, err := buildConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Duration)
	assert.Equal(t, 0.2, cfg.Initial[dynamo.Roll])
	assert.True(t, cfg.Trial.NetworkControl)
	assert.Equal(t, 1, cfg.Comm.Rank)
	assert.Equal(t, 2, cfg.Comm.Size)
	assert.Equal(t, config.GetPreset("hover").Dt, cfg.Dt, "unset flags keep the preset")
}

func TestBuildConfigFile(t *testing.T) {
	path := t.TempDir() + "/run.yaml"
	file := config.DefaultConfig()
	file.Duration = 7
	file.Trial.HoldDuration = 0.5
	require.NoError(t, config.Save(path, file))

	cfg, err := buildConfig(subcommand(t, "live", "--config", path, "--hold", "0.3"))
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.Duration)
	assert.Equal(t, 0.3, cfg.Trial.HoldDuration)
}

func TestBuildConfigUnknownPreset(t *testing.T) {
	_, err := buildConfig(subcommand(t, "run", "--preset", "nope"))
	assert.Error(t, err)
}

func TestParseGrid(t *testing.T) {
	names, ranges, err := parseGrid([]string{"hold=0.1,0.2", "roll= 0 , 0.5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hold", "roll"}, names)
	assert.Equal(t, [][]float64{{0.1, 0.2}, {0, 0.5}}, ranges)

	_, _, err = parseGrid([]string{"hold"})
	assert.Error(t, err)
	_, _, err = parseGrid([]string{"hold=a"})
	assert.Error(t, err)
}
