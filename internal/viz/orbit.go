package viz

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mapsim/internal/export"
	"github.com/san-kum/mapsim/internal/maps"
	"github.com/san-kum/mapsim/internal/metrics"
	"github.com/san-kum/mapsim/internal/storage"
)

const (
	stepsPerTick  = 10
	historyLength = 120
	constantStep  = 0.05
	cursorMoves   = 64

	// top-left of the canvas inside canvasStyle padding
	canvasOriginX = 2
	canvasOriginY = 1
)

// OrbitModel explores a standard map: pick an initial point, draw its
// orbit, tune constants, or step the current point live.
type OrbitModel struct {
	ctx    context.Context
	traj   *maps.Trajectory
	def    *maps.Definition
	store  *storage.Store
	log    *log.Logger
	outDir string
	st     styles

	canvas *Canvas
	bounds Bounds
	xi, yi int
	steps  int

	cursor    []float64
	constants []string
	selected  int

	drawn     []*maps.Orbit
	live      bool
	history   []float64
	coverage  *metrics.Coverage
	recording bool
	frames    []*image.Paletted
	showHelp  bool
	status    string
}

// NewOrbitModel wraps tr for interactive use. The map needs at least two
// variables; q and p (or the first two) span the canvas.
func NewOrbitModel(ctx context.Context, tr *maps.Trajectory, steps int, opts Options, theme Theme) (*OrbitModel, error) {
	vars := tr.Variables()
	if len(vars) < 2 {
		return nil, fmt.Errorf("orbit explorer needs two variables, %s has %d", tr.Name(), len(vars))
	}
	if steps < 1 {
		steps = maps.DefaultSteps
	}
	def := tr.Definition()

	m := &OrbitModel{
		ctx:       ctx,
		traj:      tr,
		def:       def,
		store:     opts.Store,
		log:       opts.logger(),
		outDir:    opts.OutDir,
		st:        newStyles(theme),
		canvas:    NewCanvas(60, 24),
		bounds:    Square(tr.Modulus()),
		steps:     steps,
		constants: def.Constants,
		coverage:  metrics.NewCoverage(tr.Modulus(), 64),
	}
	m.xi, m.yi = maps.PhaseAxes(vars)
	tr.AddObserver(m.coverage)

	m.cursor = make([]float64, len(vars))
	if cur, err := tr.Current(); err == nil {
		copy(m.cursor, cur)
	} else {
		for i := range m.cursor {
			m.cursor[i] = tr.Modulus() / 2
		}
	}
	return m, nil
}

func (m *OrbitModel) Title() string { return m.def.Name }

func (m *OrbitModel) SetTheme(t Theme) { m.st = newStyles(t) }

// Resize fits the canvas into a terminal of w×h cells and redraws.
func (m *OrbitModel) Resize(w, h int) {
	cw := max(w-50, 20)
	ch := max(h-4, 8)
	m.canvas = NewCanvas(cw, ch)
	m.redraw()
}

func (m *OrbitModel) Update(msg tea.KeyMsg) tea.Cmd {
	step := m.traj.Modulus() / cursorMoves
	switch msg.String() {
	case "left", "h":
		m.moveCursor(-step, 0)
	case "right", "l":
		m.moveCursor(step, 0)
	case "up", "k":
		m.moveCursor(0, step)
	case "down", "j":
		m.moveCursor(0, -step)
	case "enter":
		m.drawOrbit()
	case " ":
		m.toggleLive()
	case "c":
		m.clear()
	case "tab":
		m.cycleConstant()
	case "+", "=":
		m.adjustConstant(constantStep)
	case "-", "_":
		m.adjustConstant(-constantStep)
	case "s":
		m.save()
	case "g":
		m.toggleRecording()
	case "?":
		m.showHelp = !m.showHelp
	}
	return nil
}

// Mouse picks the initial point under a left click and draws its orbit.
func (m *OrbitModel) Mouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	col, row := msg.X-canvasOriginX, msg.Y-canvasOriginY
	if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
		return
	}
	x, y := m.canvas.Unproject(col*2, row*4, m.bounds)
	m.cursor[m.xi], m.cursor[m.yi] = x, y
	m.drawOrbit()
}

func (m *OrbitModel) moveCursor(dx, dy float64) {
	mod := m.traj.Modulus()
	m.cursor[m.xi] = wrap(m.cursor[m.xi]+dx, mod)
	m.cursor[m.yi] = wrap(m.cursor[m.yi]+dy, mod)
}

func wrap(v, m float64) float64 {
	for v < 0 {
		v += m
	}
	for v >= m {
		v -= m
	}
	return v
}

// drawOrbit iterates the map from the cursor and adds the orbit to the
// canvas in the next pen colour.
func (m *OrbitModel) drawOrbit() {
	if err := m.traj.SetInitial(m.cursor...); err != nil {
		m.fail(err)
		return
	}
	o, err := m.traj.Orbit(m.ctx, m.steps)
	if err != nil {
		m.fail(err)
		return
	}
	m.drawn = append(m.drawn, o)
	m.plot(o, len(m.drawn)-1)
	m.status = fmt.Sprintf("orbit %d from (%.3f, %.3f)", len(m.drawn), m.cursor[m.xi], m.cursor[m.yi])
	m.log.Info("drew orbit", "map", m.def.Name, "orbit", len(m.drawn), "steps", m.steps)
}

func (m *OrbitModel) plot(o *maps.Orbit, pen int) {
	m.canvas.SetPen(pen)
	xs, ys := o.Series[m.xi], o.Series[m.yi]
	for i := range xs {
		m.canvas.Plot(xs[i], ys[i], m.bounds)
	}
}

func (m *OrbitModel) redraw() {
	m.canvas.Clear()
	for i, o := range m.drawn {
		m.plot(o, i)
	}
}

func (m *OrbitModel) clear() {
	m.canvas.Clear()
	m.drawn = nil
	m.history = nil
	m.coverage.Reset()
	m.status = "cleared"
}

func (m *OrbitModel) toggleLive() {
	if m.live {
		m.live = false
		return
	}
	if err := m.traj.SetInitial(m.cursor...); err != nil {
		m.fail(err)
		return
	}
	m.live = true
	m.history = m.history[:0]
}

// Tick advances the live point when live stepping is on.
func (m *OrbitModel) Tick() {
	if m.live {
		m.canvas.SetPen(len(m.drawn))
		for i := 0; i < stepsPerTick; i++ {
			p, err := m.traj.Next()
			if err != nil {
				m.live = false
				m.fail(err)
				break
			}
			m.canvas.Plot(p[m.xi], p[m.yi], m.bounds)
			m.history = append(m.history, p[m.xi])
			copy(m.cursor, p)
		}
		if len(m.history) > historyLength {
			m.history = m.history[len(m.history)-historyLength:]
		}
	}
	if m.recording {
		m.frames = append(m.frames, m.canvas.Paletted(8, 16, color.RGBA{0, 255, 255, 255}))
	}
}

func (m *OrbitModel) cycleConstant() {
	if len(m.constants) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.constants)
}

func (m *OrbitModel) adjustConstant(delta float64) {
	if len(m.constants) == 0 {
		return
	}
	name := m.constants[m.selected]
	v := m.traj.Constants()[name] + delta
	if err := m.traj.SetConstant(name, v); err != nil {
		m.fail(err)
		return
	}
	m.status = fmt.Sprintf("%s = %.3f", name, v)
}

// save stores the drawn orbits as a run.
func (m *OrbitModel) save() {
	if m.store == nil || len(m.drawn) == 0 {
		m.status = "nothing to save"
		return
	}
	meta := storage.RunMetadata{
		Map:        m.def.Name,
		Kind:       m.def.Kind(),
		Modulus:    m.traj.Modulus(),
		Constants:  m.traj.Constants(),
		Metrics:    map[string]float64{m.coverage.Name(): m.coverage.Value()},
		Definition: m.def,
	}
	id, err := m.store.Save(meta, m.drawn)
	if err != nil {
		m.fail(err)
		return
	}
	m.status = "saved " + id
}

func (m *OrbitModel) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = nil
		m.status = "recording"
		return
	}
	m.recording = false
	path := filepath.Join(m.outDir, m.def.Name+".gif")
	if err := export.WriteGIF(path, m.frames, 2); err != nil {
		m.fail(err)
	} else {
		m.status = "wrote " + path
		m.log.Info("wrote gif", "path", path, "frames", len(m.frames))
	}
	m.frames = nil
}

func (m *OrbitModel) fail(err error) {
	m.status = "error: " + err.Error()
	m.log.Error("orbit explorer", "map", m.def.Name, "err", err)
}

func (m *OrbitModel) View() string {
	st := m.st
	canvas := NewCanvas(m.canvas.Width, m.canvas.Height)
	copyCanvas(canvas, m.canvas)
	cx, cy := canvas.Project(m.cursor[m.xi], m.cursor[m.yi], m.bounds)
	canvas.SetPen(len(m.drawn))
	for d := -2; d <= 2; d++ {
		canvas.Set(cx+d, cy)
		canvas.Set(cx, cy+d)
	}
	canvasView := st.canvas.Render(canvas.Render(st.theme.Orbits))

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.def.Name)) + "\n")
	switch {
	case m.recording:
		s.WriteString(st.errorMsg.Render("● REC") + "\n\n")
	case m.live:
		s.WriteString(st.running.Render("LIVE") + "\n\n")
	default:
		s.WriteString(st.paused.Render("IDLE") + "\n\n")
	}

	vars := m.traj.Variables()
	s.WriteString(st.row(vars[m.xi], "%.4f", m.cursor[m.xi]))
	s.WriteString(st.row(vars[m.yi], "%.4f", m.cursor[m.yi]))
	s.WriteString(st.row("modulus", "%.4f", m.traj.Modulus()))
	s.WriteString(st.row("steps", "%d", m.steps))
	s.WriteString(st.row("orbits", "%d", len(m.drawn)))
	s.WriteString(st.label.Render("coverage") + st.ProgressBar(m.coverage.Value(), 16) + "\n")

	s.WriteString("\nCONSTANTS\n")
	if len(m.constants) == 0 {
		s.WriteString(st.label.Render("  (none)") + "\n")
	}
	values := m.traj.Constants()
	for i, name := range m.constants {
		line := fmt.Sprintf("%-8s %8.3f", name, values[name])
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.Render(line) + "\n")
		}
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption(vars[m.xi]))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + st.muted.Render(m.status) + "\n")
	}
	s.WriteString("\n" + st.hints("enter", "draw", "spc", "live", "c", "clear", "tab/+-", "tune", "?", "help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
	if m.showHelp {
		return orbitHelp + "\n" + view
	}
	return view
}

func copyCanvas(dst, src *Canvas) {
	for i := range src.Grid {
		copy(dst.Grid[i], src.Grid[i])
		copy(dst.Pens[i], src.Pens[i])
	}
}

const orbitHelp = `
  arrows/hjkl  move initial point      click  pick point and draw
  enter        draw orbit              space  live step from point
  c            clear plot              tab    select constant
  + / -        adjust constant         s      save drawn orbits
  g            toggle GIF recording    t      cycle theme
  esc          back to menu            ?      toggle help
`
