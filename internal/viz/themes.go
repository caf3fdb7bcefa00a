package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the stats panel. Cell colours always follow render.Palette.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Border  lipgloss.Color
	Label   lipgloss.Color
	Value   lipgloss.Color
	Muted   lipgloss.Color
}

var (
	ThemeClinic = Theme{
		Name:    "clinic",
		Primary: lipgloss.Color("86"),
		Border:  lipgloss.Color("240"),
		Label:   lipgloss.Color("245"),
		Value:   lipgloss.Color("252"),
		Muted:   lipgloss.Color("240"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Border:  lipgloss.Color("#005500"),
		Label:   lipgloss.Color("#00cc00"),
		Value:   lipgloss.Color("#88ff88"),
		Muted:   lipgloss.Color("#005500"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Border:  lipgloss.Color("#888888"),
		Label:   lipgloss.Color("#cccccc"),
		Value:   lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
	}

	CurrentTheme = ThemeClinic

	Themes = []Theme{
		ThemeClinic,
		ThemeRetroGreen,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to the default one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClinic
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// nextTheme cycles CurrentTheme through Themes.
func nextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}
