package metrics

import "github.com/san-kum/episim/internal/epidemic"

// AttackRate is the share of the population that has left both susceptible
// pools by the last observed step.
type AttackRate struct {
	last epidemic.Counts
	seen bool
}

func NewAttackRate() *AttackRate { return &AttackRate{} }

func (a *AttackRate) Name() string { return "attack_rate" }

func (a *AttackRate) Observe(step int, c epidemic.Counts) {
	a.last = c
	a.seen = true
}

func (a *AttackRate) Value() float64 {
	total := a.last.Total()
	if !a.seen || total == 0 {
		return 0
	}
	return 1 - float64(a.last.Susceptible+a.last.Resistant)/float64(total)
}

func (a *AttackRate) Reset() {
	a.last = epidemic.Counts{}
	a.seen = false
}

// ExtinctionStep is the first step entered with no infected cell, or -1 if
// the infection was still present at the end.
type ExtinctionStep struct {
	step int
}

func NewExtinctionStep() *ExtinctionStep { return &ExtinctionStep{step: -1} }

func (e *ExtinctionStep) Name() string { return "extinction_step" }

func (e *ExtinctionStep) Observe(step int, c epidemic.Counts) {
	if e.step < 0 && c.Infected == 0 {
		e.step = step
	}
}

func (e *ExtinctionStep) Value() float64 { return float64(e.step) }
func (e *ExtinctionStep) Reset()         { e.step = -1 }

// FinalSusceptible is the susceptible fraction at the last observed step.
type FinalSusceptible struct {
	last epidemic.Counts
}

func NewFinalSusceptible() *FinalSusceptible { return &FinalSusceptible{} }

func (f *FinalSusceptible) Name() string { return "final_susceptible" }

func (f *FinalSusceptible) Observe(step int, c epidemic.Counts) { f.last = c }

func (f *FinalSusceptible) Value() float64 {
	total := f.last.Total()
	if total == 0 {
		return 0
	}
	return float64(f.last.Susceptible) / float64(total)
}

func (f *FinalSusceptible) Reset() { f.last = epidemic.Counts{} }

// Defaults is the metric set attached to every stored run.
func Defaults() []epidemic.Metric {
	return []epidemic.Metric{
		NewPeakInfected(),
		NewPeakStep(),
		NewAttackRate(),
		NewExtinctionStep(),
		NewFinalSusceptible(),
	}
}
