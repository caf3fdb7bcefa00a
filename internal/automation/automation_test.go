package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/episim/internal/epidemic"
)

func baseConfig() epidemic.RunConfig {
	return epidemic.RunConfig{
		Init:    epidemic.InitConfig{Size: 20, ResistantFraction: 0.15, InitialInfected: 4},
		Rules:   epidemic.DefaultRules(),
		Steps:   40,
		Workers: 1,
	}
}

func TestLoadSweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	data := "name: beta\nparam: beta\nmin: 0.05\nmax: 0.25\npoints: 5\nruns: 3\nseed_start: 10\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	sw, err := LoadSweep(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sw.Param != "beta" || sw.Points != 5 || sw.Runs != 3 || sw.SeedStart != 10 {
		t.Errorf("unexpected sweep: %+v", sw)
	}

	want := []float64{0.05, 0.1, 0.15, 0.2, 0.25}
	got := sw.Values()
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("value %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestSweepValidate(t *testing.T) {
	tests := []struct {
		name  string
		sweep Sweep
	}{
		{"unknown param", Sweep{Param: "gamma", Points: 2, Runs: 1}},
		{"no points", Sweep{Param: "beta", Points: 0, Runs: 1}},
		{"no runs", Sweep{Param: "beta", Points: 2, Runs: 0}},
		{"reversed range", Sweep{Param: "beta", Min: 0.5, Max: 0.1, Points: 2, Runs: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sweep.Validate()
			if !errors.Is(err, epidemic.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestSetParam(t *testing.T) {
	cfg := baseConfig()
	if err := SetParam(&cfg, "min_infected_steps", 3.7); err != nil {
		t.Fatal(err)
	}
	if cfg.Rules.MinInfectedSteps != 3 {
		t.Errorf("expected truncation to 3, got %d", cfg.Rules.MinInfectedSteps)
	}
	if err := SetParam(&cfg, "resistant_fraction", 0.4); err != nil {
		t.Fatal(err)
	}
	if cfg.Init.ResistantFraction != 0.4 {
		t.Errorf("expected 0.4, got %f", cfg.Init.ResistantFraction)
	}
	if err := SetParam(&cfg, "nope", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestRunSweep(t *testing.T) {
	sw := &Sweep{Param: "beta", Min: 0, Max: 0.3, Points: 2, Runs: 4, SeedStart: 1}

	base := baseConfig()
	base.Rules.ResistantInfection = 0

	results, err := RunSweep(context.Background(), base, sw, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 points, got %d", len(results))
	}

	// With beta 0 only the seeded cells are ever infected.
	if got := results[0].Mean["peak_infected"]; got != 4 {
		t.Errorf("expected peak 4 at beta 0, got %f", got)
	}
	if results[1].Mean["attack_rate"] <= results[0].Mean["attack_rate"] {
		t.Errorf("attack rate should grow with beta: %f vs %f",
			results[0].Mean["attack_rate"], results[1].Mean["attack_rate"])
	}
}

func TestRunSweep_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sw := &Sweep{Param: "beta", Min: 0.1, Max: 0.2, Points: 2, Runs: 2}
	if _, err := RunSweep(ctx, baseConfig(), sw, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
