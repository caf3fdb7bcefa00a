package viz

import (
	"fmt"
	"image"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/metrics"
	"github.com/san-kum/episim/internal/render"
)

const (
	defaultInterval = time.Second / 10
	historyCapacity = 600
	graphWidth      = 30
)

// Factory builds a fresh simulator. The live view calls it at start and on
// every reset.
type Factory func() (*epidemic.Simulator, error)

type Options struct {
	Name string
	// Steps stops the run after this many steps; 0 runs until extinction.
	Steps    int
	Interval time.Duration
	// Width and Height bound the canvas in terminal cells.
	Width, Height int
	GIFPath       string
	Frame         render.FrameOptions
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.Width <= 0 {
		o.Width = 80
	}
	if o.Height <= 0 {
		o.Height = 40
	}
	if o.GIFPath == "" {
		o.GIFPath = "episim.gif"
	}
	if o.Frame.Scale < 1 {
		o.Frame.Scale = 2
	}
	return o
}

type TickMsg time.Time

// Model steps a simulator on a timer and draws it with its running counts.
type Model struct {
	factory   Factory
	opts      Options
	sim       *epidemic.Simulator
	metrics   []epidemic.Metric
	canvas    *Canvas
	step      int
	running   bool
	done      bool
	counts    epidemic.Counts
	infected  []float64
	recording bool
	frames    []*image.Paletted
	status    string
	ticks     int
	err       error
}

func NewModel(factory Factory, opts Options) (Model, error) {
	opts = opts.withDefaults()
	m := Model{
		factory: factory,
		opts:    opts,
		canvas:  NewCanvas(opts.Width, opts.Height),
		running: true,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recording {
				m.stopRecording()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.advance()
			}
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "g":
			if m.recording {
				m.stopRecording()
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
				m.capture()
			}
		case "t":
			nextTheme()
		}
	case TickMsg:
		m.ticks++
		if m.running {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

// Step is the number of steps taken since the last reset.
func (m Model) Step() int { return m.step }

func (m Model) Running() bool { return m.running }

func (m Model) Done() bool { return m.done }

// Grid is the grid currently on display.
func (m Model) Grid() *epidemic.Grid { return m.sim.Store().Current() }

func (m Model) Err() error { return m.err }

// advance takes one step unless the run is finished.
func (m *Model) advance() {
	if m.done || m.err != nil {
		return
	}

	counts, err := m.sim.Step()
	if err != nil {
		m.err = err
		m.done = true
		return
	}
	for _, mt := range m.metrics {
		mt.Observe(m.step, counts)
	}
	m.step++

	m.counts = m.Grid().Counts()
	m.infected = append(m.infected, float64(m.counts.Infected))
	if len(m.infected) > historyCapacity {
		m.infected = m.infected[1:]
	}
	if m.recording {
		m.capture()
	}

	if m.counts.Infected == 0 || (m.opts.Steps > 0 && m.step >= m.opts.Steps) {
		m.done = true
		m.running = false
	}
}

// reset rebuilds the simulator from the factory.
func (m *Model) reset() error {
	sim, err := m.factory()
	if err != nil {
		return err
	}
	m.sim = sim
	m.metrics = metrics.Defaults()
	m.step = 0
	m.done = false
	m.err = nil
	m.counts = m.Grid().Counts()
	m.infected = []float64{float64(m.counts.Infected)}
	return nil
}

func (m *Model) capture() {
	m.frames = append(m.frames, render.Paletted(m.Grid(), m.opts.Frame))
}

func (m *Model) stopRecording() {
	m.recording = false
	delay := int(m.opts.Interval / (10 * time.Millisecond))
	if err := render.SaveGIF(m.opts.GIFPath, m.frames, delay); err != nil {
		m.status = fmt.Sprintf("gif: %v", err)
	} else {
		m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), m.opts.GIFPath)
	}
	m.frames = nil
}

func (m Model) View() string {
	canvasView := lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.Render(m.Grid()))

	var s strings.Builder
	title := m.opts.Name
	if title == "" {
		title = "episim"
	}
	s.WriteString(headerStyle().Render(strings.ToUpper(title)) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	total := m.counts.Total()
	for st := epidemic.State(0); st < epidemic.NumStates; st++ {
		n := m.counts.Of(st)
		frac := 0.0
		if total > 0 {
			frac = float64(n) / float64(total)
		}
		s.WriteString(labelStyle().Render(st.String()) +
			ProgressBar(frac, 16, stateColor(st)) + " " +
			valueStyle().Render(fmt.Sprintf("%d", n)) + "\n")
	}

	s.WriteString("\n" + labelStyle().Render("Step") + valueStyle().Render(fmt.Sprintf("%d", m.step)) + "\n")
	for _, mt := range m.metrics {
		if m.step == 0 {
			break
		}
		s.WriteString(labelStyle().Render(metricLabel(mt.Name())) +
			valueStyle().Render(fmt.Sprintf("%.3g", mt.Value())) + "\n")
	}

	s.WriteString("\n" + SparklineChart(m.infected, graphWidth) + "\n")
	if len(m.infected) > 1 {
		chart := asciigraph.Plot(m.infected, asciigraph.Height(4), asciigraph.Width(graphWidth), asciigraph.Caption("Infected"))
		s.WriteString(chart + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + StatusRecording.Render("error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		s.WriteString("\n" + valueStyle().Render(m.status) + "\n")
	}

	s.WriteString(helpStyle().Render(Separator(30) + "\nSP:Pause N:Step R:Reset Q:Quit\nG:Record T:Theme"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panelStyle().Render(s.String()))
}

func (m Model) statusLine() string {
	var status string
	switch {
	case m.done:
		status = StatusDone.Render("FINISHED")
	case m.running:
		status = StatusRunning.Render(AnimatedSpinner(m.ticks) + " RUNNING")
	default:
		status = StatusPaused.Render("PAUSED")
	}
	if m.recording {
		status += "  " + StatusRecording.Render(fmt.Sprintf("● REC %d", len(m.frames)))
	}
	return status
}

func metricLabel(name string) string {
	switch name {
	case "peak_infected":
		return "Peak"
	case "peak_step":
		return "Peak step"
	case "attack_rate":
		return "Attack rate"
	case "extinction_step":
		return "Extinct at"
	case "final_susceptible":
		return "Susceptible"
	}
	return name
}
