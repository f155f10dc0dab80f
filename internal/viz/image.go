package viz

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/san-kum/mapsim/internal/export"
	"github.com/san-kum/mapsim/internal/grid"
	"github.com/san-kum/mapsim/internal/maps"
)

const (
	minImageSize = 8
	maxImageSize = 512
	autoEvery    = 3 // ticks per automatic iteration
)

// ImageModel steps an image permutation map one frame at a time, or
// automatically, and shows the frame with half-block characters.
type ImageModel struct {
	perm   *maps.Permutation
	log    *log.Logger
	outDir string
	st     styles

	width, height int
	auto          bool
	ticks         int
	recording     bool
	frames        []*grid.Grid
	status        string
}

func NewImageModel(p *maps.Permutation, opts Options, theme Theme) *ImageModel {
	return &ImageModel{
		perm:   p,
		log:    opts.logger(),
		outDir: opts.OutDir,
		st:     newStyles(theme),
		width:  64,
		height: 32,
	}
}

func (m *ImageModel) Title() string { return m.perm.Name() }

func (m *ImageModel) SetTheme(t Theme) { m.st = newStyles(t) }

func (m *ImageModel) Resize(w, h int) {
	m.width = max(w-46, 16)
	m.height = max(h-4, 8)
}

func (m *ImageModel) Mouse(tea.MouseMsg) {}

func (m *ImageModel) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "n", "right", "l":
		m.step()
	case "a", " ":
		m.auto = !m.auto
	case "r":
		m.perm.Reset()
		m.status = "reset"
		m.log.Info("reset image", "map", m.perm.Name(), "size", m.perm.Size())
	case "+", "=":
		m.resize(m.perm.Size() * 2)
	case "-", "_":
		m.resize(m.perm.Size() / 2)
	case "s":
		m.saveFrame()
	case "g":
		m.toggleRecording()
	}
	return nil
}

func (m *ImageModel) step() {
	m.log.Info("computing frame", "map", m.perm.Name(), "iteration", m.perm.Steps()+1)
	if err := m.perm.Step(); err != nil {
		m.auto = false
		m.fail(err)
		return
	}
	if m.recording {
		m.frames = append(m.frames, m.perm.Frame().Clone())
	}
	m.status = fmt.Sprintf("iteration %d", m.perm.Steps())
}

func (m *ImageModel) resize(size int) {
	if size < minImageSize || size > maxImageSize {
		m.status = fmt.Sprintf("size must stay within [%d, %d]", minImageSize, maxImageSize)
		return
	}
	m.log.Info("resizing image", "map", m.perm.Name(), "from", m.perm.Size(), "to", size)
	if err := m.perm.Resize(size); err != nil {
		m.fail(err)
		return
	}
	m.status = fmt.Sprintf("size %d", size)
}

func (m *ImageModel) saveFrame() {
	path := filepath.Join(m.outDir, fmt.Sprintf("%s_%d.png", m.perm.Name(), m.perm.Steps()))
	if err := grid.Save(path, m.perm.Frame()); err != nil {
		m.fail(err)
		return
	}
	m.status = "wrote " + path
}

func (m *ImageModel) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = []*grid.Grid{m.perm.Frame().Clone()}
		m.status = "recording"
		return
	}
	m.recording = false
	path := filepath.Join(m.outDir, m.perm.Name()+".gif")
	if err := export.GridsToGIF(path, m.frames, export.DefaultDelay); err != nil {
		m.fail(err)
	} else {
		m.status = "wrote " + path
		m.log.Info("wrote gif", "path", path, "frames", len(m.frames))
	}
	m.frames = nil
}

// Tick runs one iteration every few ticks while auto mode is on.
func (m *ImageModel) Tick() {
	if !m.auto {
		return
	}
	m.ticks++
	if m.ticks%autoEvery == 0 {
		m.step()
	}
}

func (m *ImageModel) fail(err error) {
	m.status = "error: " + err.Error()
	m.log.Error("image explorer", "map", m.perm.Name(), "err", err)
}

func (m *ImageModel) View() string {
	st := m.st
	frame := st.canvas.Render(halfBlocks(m.perm.Frame(), m.width, m.height))

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.perm.Name())) + "\n")
	switch {
	case m.recording:
		s.WriteString(st.errorMsg.Render("● REC") + "\n\n")
	case m.auto:
		s.WriteString(st.running.Render("AUTO") + "\n\n")
	default:
		s.WriteString(st.paused.Render("STEP") + "\n\n")
	}
	s.WriteString(st.row("iteration", "%d", m.perm.Steps()))
	s.WriteString(st.row("size", "%d×%d", m.perm.Size(), m.perm.Size()))
	def := m.perm.Definition()
	for _, v := range def.Variables {
		s.WriteString(st.row(v+"'", "%s", def.Functions[v]))
	}
	if m.status != "" {
		s.WriteString("\n" + st.muted.Render(m.status) + "\n")
	}
	s.WriteString("\n" + st.hints("n", "step", "a", "auto", "r", "reset", "+/-", "size", "s", "save", "g", "gif"))

	return lipgloss.JoinHorizontal(lipgloss.Top, frame, st.panel.Render(s.String()))
}

// halfBlocks draws g into at most w columns and h rows, two pixels per
// cell: the upper half as foreground, the lower as background.
func halfBlocks(g *grid.Grid, w, h int) string {
	size := g.Size()
	side := min(size, w, h*2)
	if side < 2 {
		return ""
	}
	sample := func(k int) int { return k * size / side }

	var b strings.Builder
	for r := 0; r+1 < side; r += 2 {
		for c := 0; c < side; c++ {
			top := g.At(sample(r), sample(c))
			bottom := g.At(sample(r+1), sample(c))
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(top.R, top.G, top.B))).
				Background(lipgloss.Color(hex(bottom.R, bottom.G, bottom.B)))
			b.WriteString(style.Render("▀"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func hex(r, g, b uint8) string { return fmt.Sprintf("#%02x%02x%02x", r, g, b) }
