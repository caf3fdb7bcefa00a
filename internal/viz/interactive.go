package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

const (
	stateMenu = iota
	stateSim
)

// PresetFactory returns the simulator factory and display options of a preset.
type PresetFactory func(name string) (Factory, Options, error)

// App lets the user pick a preset and then runs it live.
type App struct {
	state   int
	cursor  int
	presets []string
	info    map[string]string
	build   PresetFactory
	live    Model
	err     error
}

func NewApp(presets []string, info map[string]string, build PresetFactory) App {
	return App{presets: presets, info: info, build: build}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			a.state = stateMenu
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		return a.start()
	}
	return a, nil
}

func (a App) start() (App, tea.Cmd) {
	if len(a.presets) == 0 {
		return a, nil
	}
	name := a.presets[a.cursor]
	factory, opts, err := a.build(name)
	if err == nil {
		opts.Name = name
		a.live, err = NewModel(factory, opts)
	}
	if err != nil {
		a.err = err
		return a, nil
	}
	a.err = nil
	a.state = stateSim
	return a, a.live.Init()
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View() + "\n" + dim.Render("  esc: back to presets")
	}

	var s strings.Builder
	s.WriteString(headerStyle().Render("EPISIM PRESETS") + "\n")
	for i, name := range a.presets {
		line := fmt.Sprintf("%-18s %s", name, dim.Render(a.info[name]))
		if i == a.cursor {
			s.WriteString(cyan.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	if a.err != nil {
		s.WriteString("\n" + StatusRecording.Render(a.err.Error()) + "\n")
	}
	s.WriteString(helpStyle().Render("↑↓:Select  Enter:Run  Q:Quit"))
	return s.String()
}
