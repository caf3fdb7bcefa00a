package epidemic_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/epidemic"
)

// evolve runs steps generations and hands every (before, after, counts)
// triple to check.
func evolve(eng *epidemic.Engine, g *epidemic.Grid, steps int, check func(before, after *epidemic.Grid, counts epidemic.Counts)) *epidemic.Grid {
	for i := 0; i < steps; i++ {
		next, counts := eng.Step(g)
		check(g, next, counts)
		g = next
	}
	return g
}

var _ = Describe("Transition engine", func() {
	var (
		rules epidemic.Rules
		grid  *epidemic.Grid
		eng   *epidemic.Engine
	)

	BeforeEach(func() {
		rules = epidemic.Rules{Beta: 0.35, ResistantInfection: 0.15, DailyRecovery: 0.25, MinInfectedSteps: 4}
		var err error
		grid, err = epidemic.Initialize(
			epidemic.InitConfig{Size: 48, ResistantFraction: 0.2, InitialInfected: 12},
			rand.New(rand.NewPCG(12, 34)),
		)
		Expect(err).NotTo(HaveOccurred())
		eng, err = epidemic.NewEngine(rules, epidemic.NewPCGSource(56), epidemic.WithWorkers(2))
		Expect(err).NotTo(HaveOccurred())
	})

	It("conserves the population every step", func() {
		n := grid.Size() * grid.Size()
		evolve(eng, grid, 60, func(before, after *epidemic.Grid, counts epidemic.Counts) {
			Expect(counts.Total()).To(Equal(n))
			Expect(after.Counts().Total()).To(Equal(n))
		})
	})

	It("reports the counts of the generation entering the step", func() {
		evolve(eng, grid, 20, func(before, _ *epidemic.Grid, counts epidemic.Counts) {
			Expect(counts).To(Equal(before.Counts()))
		})
	})

	It("never lets a cell leave the recovered compartment", func() {
		evolve(eng, grid, 80, func(before, after *epidemic.Grid, _ epidemic.Counts) {
			for r := 0; r < before.Size(); r++ {
				for c := 0; c < before.Size(); c++ {
					if before.At(r, c) == epidemic.Recovered {
						Expect(after.At(r, c)).To(Equal(epidemic.Recovered))
					}
				}
			}
		})
	})

	It("only moves resistant cells into the infected compartment", func() {
		evolve(eng, grid, 60, func(before, after *epidemic.Grid, _ epidemic.Counts) {
			for r := 0; r < before.Size(); r++ {
				for c := 0; c < before.Size(); c++ {
					if before.At(r, c) == epidemic.Resistant {
						Expect(after.At(r, c)).To(BeElementOf(epidemic.Resistant, epidemic.Infected))
					}
				}
			}
		})
	})

	It("keeps durations at zero outside the infected compartment", func() {
		evolve(eng, grid, 40, func(_, after *epidemic.Grid, _ epidemic.Counts) {
			for r := 0; r < after.Size(); r++ {
				for c := 0; c < after.Size(); c++ {
					if after.At(r, c) != epidemic.Infected {
						Expect(after.Duration(r, c)).To(BeZero())
					}
				}
			}
		})
	})

	It("holds infected cells for at least the minimum duration", func() {
		n := grid.Size()
		streak := make([]int, n*n)
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				if grid.At(r, c) == epidemic.Infected {
					streak[r*n+c] = 1
				}
			}
		}

		evolve(eng, grid, 80, func(before, after *epidemic.Grid, _ epidemic.Counts) {
			for r := 0; r < n; r++ {
				for c := 0; c < n; c++ {
					idx := r*n + c
					switch {
					case before.At(r, c) == epidemic.Infected && after.At(r, c) == epidemic.Recovered:
						Expect(streak[idx]).To(BeNumerically(">=", rules.MinInfectedSteps))
						streak[idx] = 0
					case after.At(r, c) == epidemic.Infected:
						streak[idx]++
					}
				}
			}
		})
	})

	It("is reproducible for a fixed seed", func() {
		other, err := epidemic.NewEngine(rules, epidemic.NewPCGSource(56))
		Expect(err).NotTo(HaveOccurred())

		a, b := grid, grid.Clone()
		for i := 0; i < 15; i++ {
			a, _ = eng.Step(a)
			b, _ = other.Step(b)
		}
		Expect(a.Equal(b)).To(BeTrue())
		Expect(a.States()).To(Equal(b.States()))
	})

	Context("without any infected cell", func() {
		It("stays static forever", func() {
			g, err := epidemic.FromStates([][]epidemic.State{
				{epidemic.Susceptible, epidemic.Resistant, epidemic.Recovered},
				{epidemic.Resistant, epidemic.Susceptible, epidemic.Susceptible},
				{epidemic.Recovered, epidemic.Susceptible, epidemic.Resistant},
			})
			Expect(err).NotTo(HaveOccurred())

			certain, err := epidemic.NewEngine(
				epidemic.Rules{Beta: 1, ResistantInfection: 1, DailyRecovery: 1},
				epidemic.Constant(0),
			)
			Expect(err).NotTo(HaveOccurred())

			evolve(certain, g, 50, func(before, after *epidemic.Grid, _ epidemic.Counts) {
				Expect(after.States()).To(Equal(before.States()))
			})
		})
	})

	Context("with a single infected neighbor", func() {
		infectionRate := func(center epidemic.State) float64 {
			g, err := epidemic.FromStates([][]epidemic.State{
				{epidemic.Infected, epidemic.Recovered, epidemic.Recovered},
				{epidemic.Recovered, center, epidemic.Recovered},
				{epidemic.Recovered, epidemic.Recovered, epidemic.Recovered},
			})
			Expect(err).NotTo(HaveOccurred())

			const trials = 4000
			hits := 0
			for seed := uint64(0); seed < trials; seed++ {
				e, err := epidemic.NewEngine(epidemic.DefaultRules(), epidemic.NewPCGSource(seed))
				Expect(err).NotTo(HaveOccurred())
				next, _ := e.Step(g)
				if next.At(1, 1) == epidemic.Infected {
					hits++
				}
			}
			return float64(hits) / trials
		}

		It("infects resistant cells less often than susceptible ones", func() {
			susceptible := infectionRate(epidemic.Susceptible)
			resistant := infectionRate(epidemic.Resistant)

			Expect(susceptible).To(BeNumerically("~", 0.10, 0.03))
			Expect(resistant).To(BeNumerically("~", 0.05, 0.02))
			Expect(resistant).To(BeNumerically("<", susceptible))
			Expect(resistant).To(BeNumerically(">", 0))
		})
	})

	DescribeTable("single-cell grids never get reinfected",
		func(start epidemic.State, want epidemic.State) {
			g, err := epidemic.FromStates([][]epidemic.State{{start}})
			Expect(err).NotTo(HaveOccurred())
			certain, err := epidemic.NewEngine(
				epidemic.Rules{Beta: 1, ResistantInfection: 1, DailyRecovery: 1, MinInfectedSteps: 3},
				epidemic.Constant(0),
			)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 10; i++ {
				g, _ = certain.Step(g)
			}
			Expect(g.At(0, 0)).To(Equal(want))
		},
		Entry("susceptible", epidemic.Susceptible, epidemic.Susceptible),
		Entry("resistant", epidemic.Resistant, epidemic.Resistant),
		Entry("infected", epidemic.Infected, epidemic.Recovered),
		Entry("recovered", epidemic.Recovered, epidemic.Recovered),
	)
})
