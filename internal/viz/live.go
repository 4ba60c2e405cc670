package viz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/packsim/internal/assembly"
	"github.com/san-kum/packsim/internal/packing"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	tickRate        = time.Second / 30
	gifPath         = "packing.gif"
)

type TickMsg time.Time

// stepMsg carries the outcome of a step run off the UI goroutine.
type stepMsg struct {
	frame packing.Frame
	err   error
	init  bool
}

// Model is the live compression view. Each tick starts one compression step
// in the background; the view only ever reads frames, never the simulation,
// so the step may run while the view redraws.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	sim    *packing.Simulation
	tr     *assembly.Transformer
	steps  int
	shape  string

	viewA, viewB float64
	width        int
	height       int
	canvas       *Canvas
	lifted       []float64

	theme  Theme
	styles styles

	history    []packing.Frame
	energies   []float64
	playHead   int
	compressed int

	running  bool
	busy     bool
	done     bool
	err      error
	note     string
	showHelp bool

	recording bool
	gif       *Recorder
}

// NewModel builds a view over sim. The simulation must not be initialized
// yet; the model initializes it when the program starts.
func NewModel(ctx context.Context, sim *packing.Simulation) Model {
	ctx, cancel := context.WithCancel(ctx)
	cfg := sim.Config()
	a, b := sim.State().Boundary().HalfExtents()
	return Model{
		ctx:      ctx,
		cancel:   cancel,
		sim:      sim,
		tr:       assembly.NewTransformer(sim.Shape(), cfg.Bodies),
		steps:    cfg.Compression.Steps,
		shape:    cfg.Boundary.Shape,
		viewA:    a + 1,
		viewB:    b + 1,
		width:    width,
		height:   height,
		canvas:   NewCanvas(width, height),
		theme:    Themes[0],
		styles:   newStyles(Themes[0]),
		history:  make([]packing.Frame, 0, historyCapacity),
		energies: make([]float64, 0, historyCapacity),
		playHead: -1,
		running:  true,
		busy:     true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	sim, ctx := m.sim, m.ctx
	return tea.Batch(tick(), func() tea.Msg {
		if _, err := sim.Initialize(ctx); err != nil {
			return stepMsg{err: err, init: true}
		}
		f, err := sim.Snapshot()
		return stepMsg{frame: f, err: err, init: true}
	})
}

// stepCmd runs one compression step. Frames that are not emitted to the
// observers are taken as snapshots so every step shows up in the view.
func (m Model) stepCmd() tea.Cmd {
	sim, ctx := m.sim, m.ctx
	return func() tea.Msg {
		f, emitted, err := sim.Step(ctx)
		if err == nil && !emitted {
			f, err = sim.Snapshot()
		}
		return stepMsg{frame: f, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case stepMsg:
		m.busy = false
		m.apply(msg)
		return m, nil
	case TickMsg:
		var cmd tea.Cmd
		if m.running && m.playHead == -1 && !m.busy && !m.done {
			m.busy = true
			cmd = m.stepCmd()
		} else if m.running && m.playHead != -1 {
			m.scrub(1)
		}
		m.draw()
		if m.recording {
			m.gif.Capture(m.canvas)
		}
		return m, tea.Batch(cmd, tick())
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.cancel()
		if m.recording {
			m.stopRecording()
		}
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "[":
		m.scrub(-1)
	case "]":
		m.scrub(1)
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "g":
		if m.recording {
			m.stopRecording()
		} else {
			m.recording = true
			m.gif = NewRecorder()
			m.note = "recording"
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) stopRecording() {
	m.recording = false
	if err := m.gif.Save(gifPath); err != nil {
		m.note = "gif: " + err.Error()
	} else {
		m.note = fmt.Sprintf("saved %d frames to %s", m.gif.Len(), gifPath)
	}
	m.gif = nil
}

// resize fits the canvas to the terminal, leaving room for the stats panel.
func (m *Model) resize(w, h int) {
	cw, ch := w-50, h-4
	if cw < 20 {
		cw = 20
	}
	if ch < 8 {
		ch = 8
	}
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
	m.draw()
}

func (m *Model) apply(msg stepMsg) {
	if msg.err != nil {
		m.done = true
		switch {
		case errors.Is(msg.err, packing.ErrBoundaryCollapsed):
			m.note = "boundary reached body size"
		case errors.Is(msg.err, context.Canceled):
		default:
			m.err = msg.err
		}
		return
	}
	m.history = append(m.history, msg.frame)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
		if m.playHead > 0 {
			m.playHead--
		}
	}
	if !msg.init {
		m.compressed = msg.frame.Index
		m.energies = append(m.energies, logEnergy(msg.frame.Energy))
		if len(m.energies) > historyCapacity {
			m.energies = m.energies[1:]
		}
	}
	if m.compressed >= m.steps {
		m.done = true
		m.note = "compression finished"
	}
}

// logEnergy maps an energy onto a chartable scale.
func logEnergy(e float64) float64 {
	return math.Log10(math.Max(e, 1e-300))
}

// scrub moves the replay position through past frames. Stepping past the
// newest frame returns to the live view.
func (m *Model) scrub(dir int) {
	if len(m.history) == 0 {
		return
	}
	if m.playHead == -1 {
		if dir > 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// current is the frame on screen: the replayed one or the newest.
func (m *Model) current() (packing.Frame, bool) {
	if len(m.history) == 0 {
		return packing.Frame{}, false
	}
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead], true
	}
	return m.history[len(m.history)-1], true
}

// draw renders the boundary and every sub-sphere of the current frame.
func (m *Model) draw() {
	m.canvas.Clear()
	f, ok := m.current()
	if !ok {
		return
	}
	vp := Fit(m.canvas, m.viewA, m.viewB)
	cx, cy := vp.Point(0, 0)
	m.canvas.DrawEllipse(cx, cy, vp.Length(f.A), vp.Length(f.B))

	m.lifted = m.tr.Lift(f.Q, m.lifted)
	k := len(m.lifted) / 2
	r := int(math.Round(vp.Length(1)))
	for i := 0; i < k; i++ {
		x, y := vp.Point(m.lifted[i], m.lifted[k+i])
		if r < 1 {
			m.canvas.Set(x, y)
			continue
		}
		m.canvas.DrawCircle(x, y, r)
	}
}

func (m Model) status() string {
	s := m.styles
	switch {
	case m.err != nil:
		return s.paused.Render("ERROR")
	case m.done:
		return s.running.Render("DONE")
	case m.playHead != -1:
		return s.paused.Render(fmt.Sprintf("REPLAY %d/%d", m.playHead+1, len(m.history)))
	case !m.running:
		return s.paused.Render("PAUSED")
	case len(m.history) == 0:
		return s.running.Render("INITIALIZING")
	}
	return s.running.Render("COMPRESSING")
}

func (m Model) View() string {
	m.draw()
	s := m.styles
	canvasView := s.canvas.Render(s.spheres.Render(m.canvas.String()))

	var b strings.Builder
	b.WriteString(s.header.Render("PACKSIM · "+strings.ToUpper(m.shape)) + "\n")
	b.WriteString(m.status() + "\n\n")

	if len(m.energies) > 1 {
		chart := asciigraph.Plot(m.energies, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("log10 energy"))
		b.WriteString(s.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		b.WriteString(s.label.Render(label) + s.value.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%s %d/%d", ProgressBar(float64(m.compressed)/float64(max(m.steps, 1)), 12), m.compressed, m.steps))
	if f, ok := m.current(); ok {
		row("Radius", fmt.Sprintf("%.4f", f.ScalarRadius))
		row("Energy", fmt.Sprintf("%.3e", f.Energy))
		row("Iterations", fmt.Sprintf("%d", f.Iterations))
		row("Contacts", fmt.Sprintf("%d pair · %d wall", f.PairContacts, f.WallContacts))
		row("Max grad", fmt.Sprintf("%.3e", f.MaxGradient))
		if f.Speed > 0 {
			row("Speed", fmt.Sprintf("%.0f it/s", f.Speed))
		}
	}
	row("Theme", m.theme.Name)
	if m.err != nil {
		b.WriteString("\n" + s.paused.Render(m.err.Error()) + "\n")
	} else if m.note != "" {
		b.WriteString("\n" + s.selected.Render(m.note) + "\n")
	}
	b.WriteString(s.help.Render(Separator(22) + "\nSP:Pause Q:Quit T:Theme\nG:Record [ ]:Replay ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, s.stats.Render(b.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume compression ║
║  Q        - Quit                     ║
║  [        - Step back through frames ║
║  ]        - Step forward             ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run shows the live view of sim until the user quits.
func Run(ctx context.Context, sim *packing.Simulation) error {
	_, err := tea.NewProgram(NewModel(ctx, sim), tea.WithAltScreen()).Run()
	return err
}
