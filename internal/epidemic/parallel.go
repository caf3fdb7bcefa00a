package epidemic

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ParallelFor executes fn over [0, n) split into contiguous chunks, one
// goroutine per chunk. Small ranges run inline.
func ParallelFor(n, minChunk, workers int, fn func(start, end int)) {
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if minChunk < 1 {
		minChunk = 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// RunConfig is everything needed to reproduce one run.
type RunConfig struct {
	Init    InitConfig
	Rules   Rules
	Steps   int
	Seed    uint64
	Workers int
}

// NewRun builds the engine, store and simulator for cfg. The initial grid and
// the transition draws use separate generators derived from the same seed.
func NewRun(cfg RunConfig, logger *log.Logger) (*Simulator, error) {
	grid, err := Initialize(cfg.Init, rand.New(rand.NewPCG(cfg.Seed, 0)))
	if err != nil {
		return nil, err
	}
	eng, err := NewEngine(cfg.Rules, NewPCGSource(cfg.Seed), WithWorkers(cfg.Workers))
	if err != nil {
		return nil, err
	}
	return NewSimulator(eng, NewStore(grid), logger), nil
}

// Ensemble runs the same configuration under consecutive seeds.
type Ensemble struct {
	cfg       RunConfig
	numRuns   int
	seedStart uint64
	metrics   func() []Metric
}

// NewEnsemble prepares numRuns runs starting at seedStart. metrics is called
// once per run so every run gets its own metric instances; it may be nil.
func NewEnsemble(cfg RunConfig, numRuns int, seedStart uint64, metrics func() []Metric) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, metrics: metrics}
}

// Run executes all runs, at most GOMAXPROCS at a time. The first failing run
// cancels the rest and its error is returned.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfgCopy := e.cfg
			cfgCopy.Seed = e.seedStart + uint64(i)
			// Runs already execute side by side.
			cfgCopy.Workers = 1

			s, err := NewRun(cfgCopy, nil)
			if err != nil {
				return err
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(ctx, cfgCopy.Steps)
			if err != nil {
				return fmt.Errorf("seed %d: %w", cfgCopy.Seed, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
