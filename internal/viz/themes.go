package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the live view.
type Theme struct {
	Name     string
	Spheres  lipgloss.Color
	Boundary lipgloss.Color
	Chart    lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Good     lipgloss.Color
	Warning  lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:     "cyberpunk",
		Spheres:  lipgloss.Color("#00ffff"),
		Boundary: lipgloss.Color("#ff00ff"),
		Chart:    lipgloss.Color("#ffff00"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#666666"),
		Good:     lipgloss.Color("#00ff00"),
		Warning:  lipgloss.Color("#ff8800"),
	}

	ThemeRetro = Theme{
		Name:     "retro",
		Spheres:  lipgloss.Color("#00ff00"),
		Boundary: lipgloss.Color("#00cc00"),
		Chart:    lipgloss.Color("#88ff88"),
		Text:     lipgloss.Color("#00ff00"),
		Muted:    lipgloss.Color("#005500"),
		Good:     lipgloss.Color("#88ff88"),
		Warning:  lipgloss.Color("#ffff00"),
	}

	ThemeOcean = Theme{
		Name:     "ocean",
		Spheres:  lipgloss.Color("#00a8cc"),
		Boundary: lipgloss.Color("#0077be"),
		Chart:    lipgloss.Color("#ffd700"),
		Text:     lipgloss.Color("#e0f0ff"),
		Muted:    lipgloss.Color("#4488aa"),
		Good:     lipgloss.Color("#00ff88"),
		Warning:  lipgloss.Color("#ffcc00"),
	}

	Themes = []Theme{ThemeCyberpunk, ThemeRetro, ThemeOcean}
)

// GetTheme returns the theme called name, or the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t in Themes, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
