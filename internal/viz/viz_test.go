package viz

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/episim/internal/epidemic"
)

func tinyFactory(infected int) Factory {
	return func() (*epidemic.Simulator, error) {
		return epidemic.NewRun(epidemic.RunConfig{
			Init:    epidemic.InitConfig{Size: 12, ResistantFraction: 0.2, InitialInfected: infected},
			Rules:   epidemic.DefaultRules(),
			Seed:    7,
			Workers: 1,
		}, nil)
	}
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestDownsample(t *testing.T) {
	S, I, R, P := epidemic.Susceptible, epidemic.Infected, epidemic.Recovered, epidemic.Resistant
	g, err := epidemic.FromStates([][]epidemic.State{
		{S, S, R, R},
		{S, P, R, P},
		{P, P, S, S},
		{P, S, S, I},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := Downsample(g, 2, 2)
	want := [][]epidemic.State{{S, R}, {P, I}}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("block (%d,%d): expected %v, got %v", i, j, want[i][j], got[i][j])
			}
		}
	}

	full := Downsample(g, 10, 10)
	if len(full) != 4 || len(full[0]) != 4 {
		t.Fatalf("expected 4x4 when canvas exceeds grid, got %dx%d", len(full), len(full[0]))
	}
	if full[3][3] != I || full[1][1] != P {
		t.Errorf("identity downsample changed cells: %v", full)
	}
}

func TestCanvasRender(t *testing.T) {
	g, _ := epidemic.NewGrid(5)
	out := NewCanvas(10, 10).Render(g)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("expected 3 lines for 5 rows, got %d", len(lines))
	}
	if n := strings.Count(lines[0], halfBlock); n != 5 {
		t.Errorf("expected 5 glyphs per line, got %d", n)
	}
}

func TestModel_Keys(t *testing.T) {
	m, err := NewModel(tinyFactory(3), Options{Steps: 50, Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	if !m.Running() {
		t.Fatal("model should start running")
	}

	m = update(t, m, key(" "))
	if m.Running() {
		t.Fatal("space should pause")
	}

	m = update(t, m, TickMsg(time.Now()))
	if m.Step() != 0 {
		t.Errorf("paused tick should not step, got step %d", m.Step())
	}

	m = update(t, m, key("n"))
	m = update(t, m, key("n"))
	if m.Step() != 2 {
		t.Errorf("expected 2 single steps, got %d", m.Step())
	}
	if m.Grid().Generation() != 2 {
		t.Errorf("expected generation 2, got %d", m.Grid().Generation())
	}

	m = update(t, m, key("r"))
	if m.Step() != 0 || m.Grid().Generation() != 0 {
		t.Errorf("reset should rewind to generation 0, got step %d gen %d", m.Step(), m.Grid().Generation())
	}

	m = update(t, m, key(" "))
	m = update(t, m, TickMsg(time.Now()))
	if m.Step() != 1 {
		t.Errorf("running tick should step once, got %d", m.Step())
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should return a quit command")
	}
}

func TestModel_StopsAtStepLimit(t *testing.T) {
	m, err := NewModel(tinyFactory(3), Options{Steps: 4})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		m = update(t, m, TickMsg(time.Now()))
	}
	if m.Step() > 4 {
		t.Errorf("expected at most 4 steps, got %d", m.Step())
	}
	if !m.Done() {
		t.Error("expected run to be finished")
	}
	if !strings.Contains(m.View(), "FINISHED") {
		t.Error("view should report the finished run")
	}
}

func TestModel_NoInfectionFinishesImmediately(t *testing.T) {
	m, err := NewModel(tinyFactory(0), Options{})
	if err != nil {
		t.Fatal(err)
	}
	m = update(t, m, TickMsg(time.Now()))
	if !m.Done() || m.Step() != 1 {
		t.Errorf("expected done after one step, got done=%v step=%d", m.Done(), m.Step())
	}
}

func TestModel_Recording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.gif")
	m, err := NewModel(tinyFactory(3), Options{GIFPath: path, Interval: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	m = update(t, m, key("g"))
	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, key("g"))

	if !strings.Contains(m.View(), "saved 3 frames") {
		t.Errorf("expected save status in view, got:\n%s", m.View())
	}
}

func TestNewModel_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewModel(func() (*epidemic.Simulator, error) { return nil, boom }, Options{})
	if !errors.Is(err, boom) {
		t.Errorf("expected factory error, got %v", err)
	}
}

func TestApp_SelectPreset(t *testing.T) {
	var picked string
	app := NewApp([]string{"a", "b"}, map[string]string{"a": "first"}, func(name string) (Factory, Options, error) {
		picked = name
		return tinyFactory(2), Options{}, nil
	})

	next, _ := app.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if picked != "b" {
		t.Errorf("expected preset b, got %q", picked)
	}
	if cmd == nil {
		t.Error("starting a preset should schedule a tick")
	}
	if !strings.Contains(next.View(), "B") {
		t.Error("live view should show the preset name")
	}

	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !strings.Contains(next.View(), "EPISIM PRESETS") {
		t.Error("esc should return to the preset menu")
	}
}

func TestSparklineChart(t *testing.T) {
	if got := SparklineChart(nil, 5); got != "─────" {
		t.Errorf("expected empty rule, got %q", got)
	}
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	if n := len([]rune(SparklineChart(values, 10))); n < 10 {
		t.Errorf("expected at least 10 runes, got %d", n)
	}
}
