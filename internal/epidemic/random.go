package epidemic

import "math/rand/v2"

// Source supplies the uniform draws in [0, 1) consumed by the transition
// rule. A draw is addressed by the generation being stepped, the row-major
// cell index and the ordinal of the draw within that cell, so the value a
// cell sees never depends on which cells were visited before it.
type Source interface {
	Float64(generation, cell, draw int) float64
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(generation, cell, draw int) float64

func (f SourceFunc) Float64(generation, cell, draw int) float64 {
	return f(generation, cell, draw)
}

// PCGSource derives every draw from a PCG generator seeded with the run seed
// and a hash of the draw address. It holds no mutable state and is safe for
// concurrent use.
type PCGSource struct {
	seed uint64
}

func NewPCGSource(seed uint64) *PCGSource {
	return &PCGSource{seed: splitmix64(seed)}
}

func (s *PCGSource) Float64(generation, cell, draw int) float64 {
	h := splitmix64(uint64(generation))
	h = splitmix64(h ^ uint64(cell))
	h = splitmix64(h ^ uint64(draw))

	var pcg rand.PCG
	pcg.Seed(s.seed, h)
	return float64(pcg.Uint64()>>11) * 0x1.0p-53
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Constant returns a Source that always yields v. Useful for forcing every
// Bernoulli trial to succeed (v = 0) or fail (v close to 1).
func Constant(v float64) Source {
	return SourceFunc(func(int, int, int) float64 { return v })
}
