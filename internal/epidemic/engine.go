package epidemic

import (
	"runtime"
	"sync"
)

// rowsPerBand is the smallest number of rows handed to a worker.
const rowsPerBand = 16

// Engine applies the transition rule to whole grids.
type Engine struct {
	rules   Rules
	src     Source
	workers int
}

type Option func(*Engine)

// WithWorkers sets how many goroutines share a step. Values below one select
// runtime.NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		e.workers = n
	}
}

// NewEngine validates the rules and returns a single-worker engine unless
// WithWorkers says otherwise.
func NewEngine(rules Rules, src Source, opts ...Option) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &ConfigError{Field: "source", Value: nil, Reason: "randomness source is required"}
	}
	e := &Engine{rules: rules, src: src, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Rules() Rules { return e.rules }

// Step computes the next generation from g and returns it together with the
// counts of g itself, i.e. the population entering this step. g is only read.
func (e *Engine) Step(g *Grid) (*Grid, Counts) {
	next := newGrid(g.size, g.generation+1)

	var (
		mu    sync.Mutex
		total Counts
	)
	ParallelFor(g.size, rowsPerBand, e.workers, func(start, end int) {
		var local Counts
		for cell := start * g.size; cell < end*g.size; cell++ {
			local.add(e.apply(g, next, cell))
		}
		mu.Lock()
		total.merge(local)
		mu.Unlock()
	})

	return next, total
}

// apply writes the next state and duration of one cell into next and returns
// the cell's current state. It reads nothing but g, so cells may be processed
// in any order.
func (e *Engine) apply(g, next *Grid, cell int) State {
	cur := g.states[cell]

	switch cur {
	case Susceptible:
		next.states[cell] = e.expose(g, cell, Susceptible, e.rules.Beta)
	case Resistant:
		next.states[cell] = e.expose(g, cell, Resistant, e.rules.ResistantInfection)
	case Infected:
		d := g.durations[cell] + 1
		if d >= e.rules.MinInfectedSteps && e.src.Float64(g.generation, cell, 0) < e.rules.DailyRecovery {
			next.states[cell] = Recovered
		} else {
			next.states[cell] = Infected
			next.durations[cell] = d
		}
	case Recovered:
		next.states[cell] = Recovered
	default:
		panic(&InvariantError{Row: cell / g.size, Col: cell % g.size, Value: cur})
	}

	return cur
}

// expose scans the Moore neighborhood in MooreOffsets order. Each infected
// neighbor costs one Bernoulli trial with probability p; the first success
// infects the cell and ends the scan. New infections start at duration 0,
// which next already holds.
func (e *Engine) expose(g *Grid, cell int, cur State, p float64) State {
	n := g.size
	row, col := cell/n, cell%n
	draw := 0
	for _, o := range MooreOffsets {
		r, c := row+o.DRow, col+o.DCol
		if r < 0 || r >= n || c < 0 || c >= n {
			continue
		}
		if g.states[r*n+c] != Infected {
			continue
		}
		u := e.src.Float64(g.generation, cell, draw)
		draw++
		if u < p {
			return Infected
		}
	}
	return cur
}
