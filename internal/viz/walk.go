package viz

import (
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mapsim/internal/diffusion"
)

// WalkModel animates the diffusion walk: particles inside the disc, the
// mean distance over time, and the surviving population.
type WalkModel struct {
	cfg diffusion.Config
	w   *diffusion.Walker
	log *log.Logger
	st  styles

	canvas   *Canvas
	running  bool
	speed    int
	mean     []float64
	active   []float64
	last     diffusion.Stats
	finished bool
}

func NewWalkModel(cfg diffusion.Config, opts Options, theme Theme) (*WalkModel, error) {
	w, err := diffusion.New(cfg)
	if err != nil {
		return nil, err
	}
	m := &WalkModel{
		cfg:     cfg,
		w:       w,
		log:     opts.logger(),
		st:      newStyles(theme),
		canvas:  NewCanvas(48, 24),
		running: true,
		speed:   1,
		last:    w.Stats(),
	}
	return m, nil
}

func (m *WalkModel) Title() string { return "Diffusion" }

func (m *WalkModel) SetTheme(t Theme) { m.st = newStyles(t) }

func (m *WalkModel) Resize(w, h int) {
	side := max(min(w-50, (h-4)*2), 16)
	m.canvas = NewCanvas(side, side/2)
}

func (m *WalkModel) Mouse(tea.MouseMsg) {}

func (m *WalkModel) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case " ":
		m.running = !m.running
	case "r":
		m.restart()
	case "+", "=":
		m.speed = min(m.speed*2, 64)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	}
	return nil
}

func (m *WalkModel) restart() {
	w, err := diffusion.New(m.cfg)
	if err != nil {
		m.log.Error("restart walk", "err", err)
		return
	}
	m.w, m.last, m.finished = w, w.Stats(), false
	m.mean, m.active = nil, nil
	m.running = true
}

func (m *WalkModel) Tick() {
	if !m.running || m.finished {
		return
	}
	for i := 0; i < m.speed; i++ {
		m.last = m.w.Step()
		m.mean = append(m.mean, m.last.MeanDistance)
		m.active = append(m.active, float64(m.last.Active))
		if m.last.Active == 0 {
			m.finished = true
			m.log.Info("all particles absorbed", "steps", m.last.Step)
			break
		}
	}
	if len(m.mean) > historyLength {
		m.mean = m.mean[len(m.mean)-historyLength:]
		m.active = m.active[len(m.active)-historyLength:]
	}
}

func (m *WalkModel) draw() {
	m.canvas.Clear()
	b := Bounds{-m.cfg.Boundary, m.cfg.Boundary, -m.cfg.Boundary, m.cfg.Boundary}

	m.canvas.SetPen(1)
	for _, r := range []float64{m.cfg.InnerRadius, m.cfg.Boundary * 0.999} {
		for a := 0.0; a < 2*math.Pi; a += 0.02 {
			m.canvas.Plot(r*math.Cos(a), r*math.Sin(a), b)
		}
	}

	m.canvas.SetPen(0)
	xs, ys := m.w.Positions()
	for i := range xs {
		m.canvas.Plot(xs[i], ys[i], b)
	}
}

func (m *WalkModel) View() string {
	st := m.st
	m.draw()
	canvasView := st.canvas.Render(m.canvas.Render(st.theme.Orbits))

	var s strings.Builder
	s.WriteString(st.header.Render("DIFFUSION") + "\n")
	switch {
	case m.finished:
		s.WriteString(st.muted.Render("DONE") + "\n\n")
	case m.running:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}
	s.WriteString(st.row("step", "%d", m.last.Step))
	s.WriteString(st.row("active", "%d", m.last.Active))
	s.WriteString(st.row("absorbed", "%d", m.last.Absorbed))
	s.WriteString(st.row("mean dist", "%.4f", m.last.MeanDistance))
	s.WriteString(st.row("speed", "%dx", m.speed))
	s.WriteString(st.label.Render("survivors") + st.SparklineChart(m.active, 20) + "\n")

	if len(m.mean) > 1 {
		chart := asciigraph.Plot(m.mean, asciigraph.Height(6), asciigraph.Width(30), asciigraph.Caption("mean distance"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	s.WriteString("\n" + st.hints("spc", "pause", "r", "restart", "+/-", "speed"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
}
