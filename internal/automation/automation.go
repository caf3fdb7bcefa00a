package automation

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/metrics"
)

// Sweep varies one parameter over a range and runs an ensemble at every point.
type Sweep struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Param       string  `yaml:"param"`
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
	Points      int     `yaml:"points"`
	Runs        int     `yaml:"runs"`
	SeedStart   uint64  `yaml:"seed_start"`
}

// SweepResult summarizes the ensemble at one parameter value.
type SweepResult struct {
	Value  float64            `json:"value"`
	Mean   map[string]float64 `json:"mean"`
	StdDev map[string]float64 `json:"std_dev"`
}

// LoadSweep loads a sweep from a YAML file.
func LoadSweep(path string) (*Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sweep Sweep
	if err := yaml.Unmarshal(data, &sweep); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &sweep, nil
}

var setters = map[string]func(cfg *epidemic.RunConfig, v float64){
	"beta":                func(c *epidemic.RunConfig, v float64) { c.Rules.Beta = v },
	"resistant_infection": func(c *epidemic.RunConfig, v float64) { c.Rules.ResistantInfection = v },
	"daily_recovery":      func(c *epidemic.RunConfig, v float64) { c.Rules.DailyRecovery = v },
	"min_infected_steps":  func(c *epidemic.RunConfig, v float64) { c.Rules.MinInfectedSteps = int(v) },
	"resistant_fraction":  func(c *epidemic.RunConfig, v float64) { c.Init.ResistantFraction = v },
	"initial_infected":    func(c *epidemic.RunConfig, v float64) { c.Init.InitialInfected = int(v) },
}

// Params lists the parameters a sweep can vary.
func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetParam assigns v to the named parameter of cfg. Integer parameters are
// truncated.
func SetParam(cfg *epidemic.RunConfig, name string, v float64) error {
	set, ok := setters[name]
	if !ok {
		return &epidemic.ConfigError{Field: "param", Value: name, Reason: fmt.Sprintf("unknown parameter (available: %v)", Params())}
	}
	set(cfg, v)
	return nil
}

func (s *Sweep) Validate() error {
	if _, ok := setters[s.Param]; !ok {
		return &epidemic.ConfigError{Field: "param", Value: s.Param, Reason: fmt.Sprintf("unknown parameter (available: %v)", Params())}
	}
	if s.Points < 1 {
		return &epidemic.ConfigError{Field: "points", Value: s.Points, Reason: "must be at least 1"}
	}
	if s.Runs < 1 {
		return &epidemic.ConfigError{Field: "runs", Value: s.Runs, Reason: "must be at least 1"}
	}
	if s.Max < s.Min {
		return &epidemic.ConfigError{Field: "max", Value: s.Max, Reason: "must not be below min"}
	}
	return nil
}

// Values returns the evenly spaced parameter values of the sweep.
func (s *Sweep) Values() []float64 {
	if s.Points == 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Points-1)
	values := make([]float64, s.Points)
	for i := range values {
		values[i] = s.Min + float64(i)*step
	}
	return values
}

// RunSweep runs one ensemble per sweep value on top of base. Every point uses
// the same seeds, so differences between points come from the parameter only.
func RunSweep(ctx context.Context, base epidemic.RunConfig, sweep *Sweep, logger *log.Logger) ([]SweepResult, error) {
	if err := sweep.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))

	for i, v := range values {
		cfg := base
		if err := SetParam(&cfg, sweep.Param, v); err != nil {
			return nil, err
		}

		runs, err := epidemic.NewEnsemble(cfg, sweep.Runs, sweep.SeedStart, metrics.Defaults).Run(ctx)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}

		results = append(results, summarize(v, runs))
		logger.Info("sweep point", "n", i+1, "of", len(values), sweep.Param, v)
	}

	return results, nil
}

func summarize(v float64, runs []*epidemic.Result) SweepResult {
	res := SweepResult{
		Value:  v,
		Mean:   make(map[string]float64),
		StdDev: make(map[string]float64),
	}
	for _, m := range metrics.Defaults() {
		name := m.Name()
		xs := make([]float64, len(runs))
		for i, r := range runs {
			xs[i] = r.Metrics[name]
		}
		if len(xs) == 1 {
			res.Mean[name] = xs[0]
			continue
		}
		res.Mean[name], res.StdDev[name] = stat.MeanStdDev(xs, nil)
	}
	return res
}
