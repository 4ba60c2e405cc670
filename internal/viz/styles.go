package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles are the lipgloss styles of one theme.
type styles struct {
	canvas   lipgloss.Style
	spheres  lipgloss.Style
	stats    lipgloss.Style
	header   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	graph    lipgloss.Style
	help     lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	selected lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas:  lipgloss.NewStyle().Padding(1, 2),
		spheres: lipgloss.NewStyle().Foreground(t.Spheres),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(42),
		header:   lipgloss.NewStyle().Foreground(t.Boundary).Bold(true).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		graph:    lipgloss.NewStyle().Foreground(t.Chart).Padding(1, 0),
		help:     lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		running:  lipgloss.NewStyle().Foreground(t.Good).Bold(true),
		paused:   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		selected: lipgloss.NewStyle().Foreground(t.Spheres).Bold(true),
	}
}

// ProgressBar renders a bar of width cells filled to percent in [0, 1].
func ProgressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	filled := int(percent * float64(width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func Separator(width int) string {
	return strings.Repeat("─", width)
}
