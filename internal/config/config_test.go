package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/episim/internal/epidemic"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Grid.Size != 200 {
		t.Errorf("expected size 200, got %d", cfg.Grid.Size)
	}
	if cfg.Steps != 250 {
		t.Errorf("expected 250 steps, got %d", cfg.Steps)
	}
	if cfg.EpidemicRules() != epidemic.DefaultRules() {
		t.Errorf("expected default rules, got %+v", cfg.EpidemicRules())
	}
	if cfg.InitConfig() != epidemic.DefaultInitConfig() {
		t.Errorf("expected default init config, got %+v", cfg.InitConfig())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
grid:
  size: 50
  initial_infected: 3
rules:
  beta: 0.25
steps: 40
seed: 7
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Grid.Size != 50 || cfg.Grid.InitialInfected != 3 {
		t.Errorf("grid not loaded: %+v", cfg.Grid)
	}
	if cfg.Rules.Beta != 0.25 {
		t.Errorf("expected beta 0.25, got %f", cfg.Rules.Beta)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Rules.DailyRecovery != DefaultDailyRecovery {
		t.Errorf("expected default recovery, got %f", cfg.Rules.DailyRecovery)
	}
	if cfg.Grid.ResistantFraction != DefaultResistantFraction {
		t.Errorf("expected default resistant fraction, got %f", cfg.Grid.ResistantFraction)
	}
	if cfg.Seed != 7 || cfg.Steps != 40 {
		t.Errorf("expected seed 7 and 40 steps, got %d and %d", cfg.Seed, cfg.Steps)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("grid: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := GetPreset("contagious")
	cfg.Seed = 1234

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch: saved %+v, loaded %+v", cfg, loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"beta above one", func(c *Config) { c.Rules.Beta = 1.5 }},
		{"negative fraction", func(c *Config) { c.Grid.ResistantFraction = -0.2 }},
		{"too many infected", func(c *Config) { c.Grid.Size = 2; c.Grid.InitialInfected = 5 }},
		{"negative steps", func(c *Config) { c.Steps = -1 }},
		{"zero fps", func(c *Config) { c.Output.FPS = 0 }},
		{"zero scale", func(c *Config) { c.Output.Scale = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, epidemic.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("no_resistance")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Grid.ResistantFraction != 0 {
		t.Errorf("expected no resistance, got %f", cfg.Grid.ResistantFraction)
	}

	// Presets must not leak into each other or into the defaults.
	if DefaultConfig().Grid.ResistantFraction != DefaultResistantFraction {
		t.Error("preset modified the defaults")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
	for _, name := range presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestMerge_OverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte("rules:\n  beta: 0.25\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("tiny")
	if err := cfg.Merge(path); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if cfg.Rules.Beta != 0.25 {
		t.Errorf("expected beta 0.25, got %f", cfg.Rules.Beta)
	}
	if cfg.Grid.Size != 40 {
		t.Errorf("expected preset size 40 to survive, got %d", cfg.Grid.Size)
	}
}

func TestDescriptions(t *testing.T) {
	for name := range Presets {
		if Descriptions[name] == "" {
			t.Errorf("preset %s has no description", name)
		}
	}
}
