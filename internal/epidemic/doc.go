// Package epidemic implements a stochastic SIR cellular automaton with a
// fourth, partially resistant compartment.
//
// The package is split along two responsibilities:
//
//   - [Grid] and [Store]: per-cell state and infection duration, the initial
//     distribution ([Initialize]) and whole-grid commits.
//   - [Engine]: the synchronous transition rule. Every cell's next state is
//     computed from the same frozen snapshot and written into a fresh grid.
//
// [Simulator] drives an engine for a number of steps and forwards per-step
// counts and grids to [Observer] and [Metric] implementations.
//
// # Example
//
//	rng := rand.New(rand.NewPCG(seed, 0))
//	g, _ := epidemic.Initialize(epidemic.DefaultInitConfig(), rng)
//	eng, _ := epidemic.NewEngine(epidemic.DefaultRules(), epidemic.NewPCGSource(seed))
//	next, counts := eng.Step(g)
//
// # Randomness
//
// Draws come from a [Source] addressed by (generation, cell, draw). Because no
// cell shares a random stream with another, the result of a step does not
// depend on the order cells are visited, which is what lets [Engine] split the
// grid into row bands and process them concurrently.
package epidemic
