package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/packsim/internal/config"
	"github.com/san-kum/packsim/internal/packing"
)

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

// Builder turns a chosen configuration into a simulation.
type Builder func(cfg *config.Config) (*packing.Simulation, error)

type presetEntry struct {
	shape, name string
	cfg         *config.Config
}

func (p presetEntry) describe() string {
	c := p.cfg
	return fmt.Sprintf("N=%d m=%d R=%g %s", c.Bodies, c.SpheresPerBody, c.Boundary.B, c.Potential.Family)
}

// App lets the user pick a preset and then runs the live view on it.
type App struct {
	ctx     context.Context
	build   Builder
	entries []presetEntry
	cursor  int
	live    *Model
	err     error
}

func NewApp(ctx context.Context, build Builder) *App {
	var entries []presetEntry
	for shape, group := range config.Presets {
		for name := range group {
			entries = append(entries, presetEntry{shape: shape, name: name, cfg: config.GetPreset(shape, name)})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].shape != entries[j].shape {
			return entries[i].shape < entries[j].shape
		}
		return entries[i].name < entries[j].name
	})
	return &App{ctx: ctx, build: build, entries: entries}
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.live != nil {
		next, cmd := a.live.Update(msg)
		m := next.(Model)
		a.live = &m
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
		if a.cursor < len(a.entries)-1 {
			a.cursor++
		}
	case "enter", " ":
		return a, a.start()
	}
	return a, nil
}

func (a *App) start() tea.Cmd {
	if len(a.entries) == 0 {
		return nil
	}
	sim, err := a.build(a.entries[a.cursor].cfg)
	if err != nil {
		a.err = err
		return nil
	}
	m := NewModel(a.ctx, sim)
	a.live = &m
	return m.Init()
}

func (a *App) View() string {
	if a.live != nil {
		return a.live.View()
	}
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("PACKSIM") + "\n    " + menuSub.Render("rigid body compression") + "\n    " + menuSub.Render(Separator(25)) + "\n\n")
	for i, e := range a.entries {
		label := fmt.Sprintf("%-16s", e.shape+"/"+e.name)
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(label), menuDesc.Render(e.describe())))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", menuIdle.Render(label), menuIdle.Render(e.describe())))
		}
	}
	if a.err != nil {
		b.WriteString("\n    " + menuDesc.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuIdle.Render(" navigate  ") + menuKey.Render("enter") + menuIdle.Render(" start  ") + menuKey.Render("q") + menuIdle.Render(" quit") + "\n")
	return b.String()
}

// RunInteractive shows the preset menu.
func RunInteractive(ctx context.Context, build Builder) error {
	_, err := tea.NewProgram(NewApp(ctx, build), tea.WithAltScreen()).Run()
	return err
}
