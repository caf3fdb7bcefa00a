package epidemic

import "fmt"

// State is the compartment a cell belongs to. The numeric values are the ones
// handed to renderers.
type State uint8

const (
	Susceptible State = iota
	Infected
	Recovered
	Resistant
)

// NumStates is the number of defined compartments.
const NumStates = 4

func (s State) Valid() bool { return s < NumStates }

func (s State) String() string {
	switch s {
	case Susceptible:
		return "susceptible"
	case Infected:
		return "infected"
	case Recovered:
		return "recovered"
	case Resistant:
		return "resistant"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Counts is the number of cells in each compartment for one step.
type Counts struct {
	Susceptible int `json:"susceptible"`
	Infected    int `json:"infected"`
	Recovered   int `json:"recovered"`
	Resistant   int `json:"resistant"`
}

func (c Counts) Total() int {
	return c.Susceptible + c.Infected + c.Recovered + c.Resistant
}

// Of returns the count for a single compartment.
func (c Counts) Of(s State) int {
	switch s {
	case Susceptible:
		return c.Susceptible
	case Infected:
		return c.Infected
	case Recovered:
		return c.Recovered
	case Resistant:
		return c.Resistant
	}
	return 0
}

func (c *Counts) add(s State) {
	switch s {
	case Susceptible:
		c.Susceptible++
	case Infected:
		c.Infected++
	case Recovered:
		c.Recovered++
	case Resistant:
		c.Resistant++
	}
}

func (c *Counts) merge(o Counts) {
	c.Susceptible += o.Susceptible
	c.Infected += o.Infected
	c.Recovered += o.Recovered
	c.Resistant += o.Resistant
}

// Rules are the per-step transition probabilities. They are fixed for the
// lifetime of an engine.
type Rules struct {
	// Beta is the infection probability for a susceptible cell per exposure.
	Beta float64
	// ResistantInfection is the infection probability for a resistant cell.
	ResistantInfection float64
	// DailyRecovery is the per-step recovery probability once MinInfectedSteps
	// has elapsed.
	DailyRecovery    float64
	MinInfectedSteps int
}

func DefaultRules() Rules {
	return Rules{
		Beta:               0.1,
		ResistantInfection: 0.05,
		DailyRecovery:      0.15,
		MinInfectedSteps:   5,
	}
}

func (r Rules) Validate() error {
	if err := checkProbability("beta", r.Beta); err != nil {
		return err
	}
	if err := checkProbability("resistant_infection", r.ResistantInfection); err != nil {
		return err
	}
	if err := checkProbability("daily_recovery", r.DailyRecovery); err != nil {
		return err
	}
	if r.MinInfectedSteps < 0 {
		return &ConfigError{Field: "min_infected_steps", Value: r.MinInfectedSteps, Reason: "must be non-negative"}
	}
	return nil
}

// InitConfig describes the initial distribution of a grid.
type InitConfig struct {
	Size              int
	ResistantFraction float64
	InitialInfected   int
}

func DefaultInitConfig() InitConfig {
	return InitConfig{
		Size:              200,
		ResistantFraction: 0.15,
		InitialInfected:   5,
	}
}

func (c InitConfig) Validate() error {
	if c.Size < 1 {
		return &ConfigError{Field: "size", Value: c.Size, Reason: "must be at least 1"}
	}
	if err := checkProbability("resistant_fraction", c.ResistantFraction); err != nil {
		return err
	}
	if c.InitialInfected < 0 {
		return &ConfigError{Field: "initial_infected", Value: c.InitialInfected, Reason: "must be non-negative"}
	}
	if cells := c.Size * c.Size; c.InitialInfected > cells {
		return &ConfigError{
			Field:  "initial_infected",
			Value:  c.InitialInfected,
			Reason: fmt.Sprintf("exceeds grid capacity of %d cells", cells),
		}
	}
	return nil
}

func checkProbability(field string, p float64) error {
	// NaN fails both comparisons, so test for the valid range.
	if !(p >= 0 && p <= 1) {
		return &ConfigError{Field: field, Value: p, Reason: "must be within [0, 1]"}
	}
	return nil
}
