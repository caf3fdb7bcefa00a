package epidemic

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Grid is one generation of the automaton: a square matrix of states and the
// number of consecutive steps each infected cell has been infected. A Grid is
// never modified after it has been handed out; the engine always writes a new
// one.
type Grid struct {
	size       int
	generation int
	states     []State
	durations  []int
}

// NewGrid returns an all-susceptible grid of the given side.
func NewGrid(size int) (*Grid, error) {
	if size < 1 {
		return nil, &ConfigError{Field: "size", Value: size, Reason: "must be at least 1"}
	}
	return newGrid(size, 0), nil
}

func newGrid(size, generation int) *Grid {
	return &Grid{
		size:       size,
		generation: generation,
		states:     make([]State, size*size),
		durations:  make([]int, size*size),
	}
}

// FromStates builds a generation-zero grid from a square state matrix. Every
// infected cell starts with a duration of zero.
func FromStates(states [][]State) (*Grid, error) {
	n := len(states)
	if n == 0 {
		return nil, &ConfigError{Field: "states", Value: 0, Reason: "matrix is empty"}
	}
	g := newGrid(n, 0)
	for r, row := range states {
		if len(row) != n {
			return nil, &ConfigError{
				Field:  "states",
				Value:  len(row),
				Reason: fmt.Sprintf("row %d has %d columns, want %d", r, len(row), n),
			}
		}
		for c, s := range row {
			if !s.Valid() {
				return nil, &ConfigError{
					Field:  "states",
					Value:  uint8(s),
					Reason: fmt.Sprintf("cell (%d,%d) holds an undefined state", r, c),
				}
			}
			g.states[r*n+c] = s
		}
	}
	return g, nil
}

// Initialize builds the starting grid: round(N²·p) distinct resistant cells,
// then k distinct infected cells drawn independently of the resistant ones.
// An infected pick that landed on a resistant cell simply becomes infected.
func Initialize(cfg InitConfig, rng *rand.Rand) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := newGrid(cfg.Size, 0)
	cells := len(g.states)

	resistant := int(math.Round(float64(cells) * cfg.ResistantFraction))
	for _, idx := range sample(rng, cells, resistant) {
		g.states[idx] = Resistant
	}
	for _, idx := range sample(rng, cells, cfg.InitialInfected) {
		g.states[idx] = Infected
		g.durations[idx] = 0
	}
	return g, nil
}

// sample picks k distinct indices out of [0, n) with a partial Fisher-Yates
// shuffle.
func sample(rng *rand.Rand, n, k int) []int {
	if k == 0 {
		return nil
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}

func (g *Grid) Size() int { return g.size }

// Generation is 0 for an initial grid and grows by one per engine step.
func (g *Grid) Generation() int { return g.generation }

func (g *Grid) At(row, col int) State { return g.states[row*g.size+col] }

func (g *Grid) Duration(row, col int) int { return g.durations[row*g.size+col] }

// States returns a copy of the state matrix.
func (g *Grid) States() [][]State {
	out := make([][]State, g.size)
	for r := range out {
		out[r] = make([]State, g.size)
		copy(out[r], g.states[r*g.size:(r+1)*g.size])
	}
	return out
}

// Durations returns a copy of the infection duration matrix.
func (g *Grid) Durations() [][]int {
	out := make([][]int, g.size)
	for r := range out {
		out[r] = make([]int, g.size)
		copy(out[r], g.durations[r*g.size:(r+1)*g.size])
	}
	return out
}

// Counts tallies the cells per compartment.
func (g *Grid) Counts() Counts {
	var c Counts
	for _, s := range g.states {
		c.add(s)
	}
	return c
}

// Clone returns a deep copy keeping the generation.
func (g *Grid) Clone() *Grid {
	c := newGrid(g.size, g.generation)
	copy(c.states, g.states)
	copy(c.durations, g.durations)
	return c
}

// Equal reports whether both grids hold the same states and durations.
func (g *Grid) Equal(o *Grid) bool {
	if g.size != o.size {
		return false
	}
	for i := range g.states {
		if g.states[i] != o.states[i] || g.durations[i] != o.durations[i] {
			return false
		}
	}
	return true
}
