package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/epidemic"
)

const (
	DefaultSize              = 200
	DefaultSteps             = 250
	DefaultBeta              = 0.1
	DefaultResistantInfect   = 0.05
	DefaultDailyRecovery     = 0.15
	DefaultMinInfectedSteps  = 5
	DefaultInitialInfected   = 5
	DefaultResistantFraction = 0.15
	DefaultFPS               = 10
	DefaultScale             = 2
	DefaultDataDir           = ".episim"
)

type Config struct {
	Grid     GridConfig   `yaml:"grid"`
	Rules    RulesConfig  `yaml:"rules"`
	Steps    int          `yaml:"steps"`
	Seed     uint64       `yaml:"seed"`
	Workers  int          `yaml:"workers"`
	Output   OutputConfig `yaml:"output"`
	LogLevel string       `yaml:"log_level"`
}

type GridConfig struct {
	Size              int     `yaml:"size"`
	ResistantFraction float64 `yaml:"resistant_fraction"`
	InitialInfected   int     `yaml:"initial_infected"`
}

type RulesConfig struct {
	Beta               float64 `yaml:"beta"`
	ResistantInfection float64 `yaml:"resistant_infection"`
	DailyRecovery      float64 `yaml:"daily_recovery"`
	MinInfectedSteps   int     `yaml:"min_infected_steps"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
	// Video enables the MJPEG animation of the grid.
	Video      bool `yaml:"video"`
	FPS        int  `yaml:"fps"`
	Scale      int  `yaml:"scale"`
	Legend     bool `yaml:"legend"`
	ChartStrip bool `yaml:"chart_strip"`
	// Curves writes a PNG of the four compartments over time.
	Curves bool `yaml:"curves"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Size:              DefaultSize,
			ResistantFraction: DefaultResistantFraction,
			InitialInfected:   DefaultInitialInfected,
		},
		Rules: RulesConfig{
			Beta:               DefaultBeta,
			ResistantInfection: DefaultResistantInfect,
			DailyRecovery:      DefaultDailyRecovery,
			MinInfectedSteps:   DefaultMinInfectedSteps,
		},
		Steps: DefaultSteps,
		Output: OutputConfig{
			Dir:    DefaultDataDir,
			Video:  true,
			FPS:    DefaultFPS,
			Scale:  DefaultScale,
			Legend: true,
			Curves: true,
		},
		LogLevel: "info",
	}
}

// Load reads a config file on top of DefaultConfig.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.Merge(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays the keys present in the file at path onto c.
func (c *Config) Merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the simulation parameters with the engine's own validators
// and the output settings locally.
func (c *Config) Validate() error {
	if err := c.InitConfig().Validate(); err != nil {
		return err
	}
	if err := c.EpidemicRules().Validate(); err != nil {
		return err
	}
	if c.Steps < 0 {
		return &epidemic.ConfigError{Field: "steps", Value: c.Steps, Reason: "must be non-negative"}
	}
	if c.Output.FPS <= 0 {
		return &epidemic.ConfigError{Field: "output.fps", Value: c.Output.FPS, Reason: "must be positive"}
	}
	if c.Output.Scale < 1 {
		return &epidemic.ConfigError{Field: "output.scale", Value: c.Output.Scale, Reason: "must be at least 1"}
	}
	return nil
}

func (c *Config) InitConfig() epidemic.InitConfig {
	return epidemic.InitConfig{
		Size:              c.Grid.Size,
		ResistantFraction: c.Grid.ResistantFraction,
		InitialInfected:   c.Grid.InitialInfected,
	}
}

func (c *Config) EpidemicRules() epidemic.Rules {
	return epidemic.Rules{
		Beta:               c.Rules.Beta,
		ResistantInfection: c.Rules.ResistantInfection,
		DailyRecovery:      c.Rules.DailyRecovery,
		MinInfectedSteps:   c.Rules.MinInfectedSteps,
	}
}

func (c *Config) RunConfig() epidemic.RunConfig {
	return epidemic.RunConfig{
		Init:    c.InitConfig(),
		Rules:   c.EpidemicRules(),
		Steps:   c.Steps,
		Seed:    c.Seed,
		Workers: c.Workers,
	}
}
