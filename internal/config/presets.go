package config

import "sort"

// Presets holds named overrides applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	"default": func(c *Config) {},
	"no_resistance": func(c *Config) {
		c.Grid.ResistantFraction = 0
	},
	"high_resistance": func(c *Config) {
		c.Grid.ResistantFraction = 0.5
		c.Rules.ResistantInfection = 0.02
	},
	"fast_recovery": func(c *Config) {
		c.Rules.DailyRecovery = 0.4
		c.Rules.MinInfectedSteps = 2
	},
	"contagious": func(c *Config) {
		c.Rules.Beta = 0.3
		c.Rules.ResistantInfection = 0.15
		c.Grid.InitialInfected = 20
	},
	"tiny": func(c *Config) {
		c.Grid.Size = 40
		c.Grid.InitialInfected = 2
		c.Steps = 100
	},
}

// Descriptions are one-line summaries of the presets.
var Descriptions = map[string]string{
	"default":         "reference parameters, 15% partially resistant",
	"no_resistance":   "classic SIR, nobody resistant",
	"high_resistance": "half the population, well protected",
	"fast_recovery":   "short infections",
	"contagious":      "high transmission, 20 seeds",
	"tiny":            "40x40 grid for quick checks",
}

// GetPreset returns a fresh config with the preset applied, or nil when the
// preset does not exist.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
