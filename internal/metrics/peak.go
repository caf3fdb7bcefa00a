package metrics

import "github.com/san-kum/episim/internal/epidemic"

// PeakInfected is the largest infected count seen over the run.
type PeakInfected struct {
	name string
	peak int
	step int
}

func NewPeakInfected() *PeakInfected {
	return &PeakInfected{name: "peak_infected", step: -1}
}

func (p *PeakInfected) Name() string { return p.name }

func (p *PeakInfected) Observe(step int, c epidemic.Counts) {
	if p.step < 0 || c.Infected > p.peak {
		p.peak = c.Infected
		p.step = step
	}
}

func (p *PeakInfected) Value() float64 { return float64(p.peak) }

// Step is the first step at which the peak was reached, -1 before any
// observation.
func (p *PeakInfected) Step() int { return p.step }

func (p *PeakInfected) Reset() {
	p.peak = 0
	p.step = -1
}

// PeakStep reports the step of the infection peak.
type PeakStep struct {
	peak *PeakInfected
}

func NewPeakStep() *PeakStep {
	return &PeakStep{peak: NewPeakInfected()}
}

func (p *PeakStep) Name() string                        { return "peak_step" }
func (p *PeakStep) Observe(step int, c epidemic.Counts) { p.peak.Observe(step, c) }
func (p *PeakStep) Value() float64                      { return float64(p.peak.Step()) }
func (p *PeakStep) Reset()                              { p.peak.Reset() }
