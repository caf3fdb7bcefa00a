package epidemic

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Observer receives every step in order: the step index, the counts of the
// population entering the step and the grid committed at its end.
type Observer interface {
	OnStep(step int, counts Counts, g *Grid) error
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(step int, counts Counts, g *Grid) error

func (f ObserverFunc) OnStep(step int, counts Counts, g *Grid) error {
	return f(step, counts, g)
}

type Metric interface {
	Name() string
	Observe(step int, c Counts)
	Value() float64
	Reset()
}

type Result struct {
	Counts     []Counts
	Final      *Grid
	Metrics    map[string]float64
	StepsTaken int
}

// Simulator drives an engine over a store and fans every step out to metrics
// and observers. Simulator instances are not safe for concurrent Run calls.
type Simulator struct {
	engine    *Engine
	store     *Store
	logger    *log.Logger
	metrics   []Metric
	observers []Observer
}

func NewSimulator(engine *Engine, store *Store, logger *log.Logger) *Simulator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Simulator{
		engine:    engine,
		store:     store,
		logger:    logger,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Store() *Store   { return s.store }
func (s *Simulator) Engine() *Engine { return s.engine }

// Step advances the store by one generation and returns the counts of the
// generation that was stepped. Metrics and observers are not involved.
func (s *Simulator) Step() (Counts, error) {
	next, counts := s.engine.Step(s.store.Current())
	if err := s.store.Commit(next); err != nil {
		return counts, err
	}
	return counts, nil
}

// Run executes steps generations. The first observer error stops the run and
// is returned as a *SinkError together with the partial result.
func (s *Simulator) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		return nil, &ConfigError{Field: "steps", Value: steps, Reason: "must be non-negative"}
	}

	result := &Result{
		Counts:  make([]Counts, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	s.logger.Debug("simulation started", "steps", steps, "size", s.store.Current().Size())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			result.Final = s.store.Current()
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		counts, err := s.Step()
		if err != nil {
			return result, fmt.Errorf("step %d: %w", i, err)
		}
		result.Counts = append(result.Counts, counts)
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(i, counts)
		}

		g := s.store.Current()
		for _, obs := range s.observers {
			if err := obs.OnStep(i, counts, g); err != nil {
				result.Final = g
				return result, &SinkError{Sink: fmt.Sprintf("%T", obs), Step: i, Wrapped: err}
			}
		}

		s.logger.Debug("step", "step", i, "susceptible", counts.Susceptible,
			"infected", counts.Infected, "recovered", counts.Recovered, "resistant", counts.Resistant)
	}

	result.Final = s.store.Current()
	s.collect(result)

	s.logger.Info("simulation finished", "steps", result.StepsTaken, "elapsed", time.Since(start))
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
