package config

import (
	"sort"

	"github.com/nash169/RoboBrain/internal/dynamo"
)

// Presets build named configurations on top of DefaultConfig.
var Presets = map[string]func() *Config{
	// hover regulates a slightly tilted vehicle with the feedback law alone.
	"hover": func() *Config {
		cfg := DefaultConfig()
		cfg.Duration = 5
		cfg.Initial = DefaultDesired()
		cfg.Initial[dynamo.Roll] = 0.05
		cfg.Trial.NetworkControl = false
		return cfg
	},
	// robobrain reproduces the learning experiment: the agent drives the
	// roll torque and the vehicle is pinned for two seconds before the
	// first trial.
	"robobrain": func() *Config {
		cfg := DefaultConfig()
		cfg.Duration = 20
		cfg.Trial.StartupHold = 2.0
		return cfg
	},
	// tumble starts past the rate bound to exercise trial resets.
	"tumble": func() *Config {
		cfg := DefaultConfig()
		cfg.Duration = 3
		cfg.Initial = DefaultDesired()
		cfg.Initial[dynamo.Roll] = 1.0
		cfg.Initial[dynamo.RollRate] = 25
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
