package viz

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/san-kum/mapsim/internal/config"
	"github.com/san-kum/mapsim/internal/diffusion"
	"github.com/san-kum/mapsim/internal/experiment"
	"github.com/san-kum/mapsim/internal/logbus"
	"github.com/san-kum/mapsim/internal/maps"
	"github.com/san-kum/mapsim/internal/storage"
)

const (
	fps = 30

	// DiffusionItem is the menu entry for the diffusion walk.
	DiffusionItem = "Diffusion"
)

// Options wires the TUI to the rest of the program. Nil fields get
// defaults: the built-in registry, no run storage, a discarding logger.
type Options struct {
	Registry *experiment.Registry
	Store    *storage.Store
	Config   *config.Config
	Logger   *log.Logger
	Logs     *logbus.Queue
	OutDir   string
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard)
	}
	return o.Logger
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Registry == nil {
		o.Registry = experiment.NewRegistry(o.Logger)
	}
	if o.Config == nil {
		o.Config = config.DefaultConfig()
	}
	if o.OutDir == "" {
		o.OutDir = "."
	}
	return o
}

// TickMsg drives animation. Gen identifies the screen that scheduled it;
// ticks from a screen that has been left are dropped.
type TickMsg struct {
	Gen  int
	Time time.Time
}

func tick(gen int) tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg{Gen: gen, Time: t} })
}

// screen is an explorer opened from the menu.
type screen interface {
	Title() string
	Update(tea.KeyMsg) tea.Cmd
	Mouse(tea.MouseMsg)
	Tick()
	Resize(w, h int)
	SetTheme(Theme)
	View() string
}

const (
	viewMenu = iota
	viewScreen
	viewLogs
)

type menuItem struct {
	name, kind, desc string
}

// App is the top-level Bubble Tea model: a menu of maps, the explorer for
// the chosen one, and a log tab.
type App struct {
	ctx    context.Context
	opts   Options
	theme  Theme
	st     styles
	items  []menuItem
	cursor int
	view   int
	back   int
	screen screen
	logs   *LogPane
	gen    int
	status string

	width, height int
}

func NewApp(ctx context.Context, opts Options) *App {
	opts = opts.withDefaults()
	theme := GetTheme(opts.Config.Theme)
	a := &App{
		ctx:   ctx,
		opts:  opts,
		theme: theme,
		st:    newStyles(theme),
		logs:  &LogPane{},
	}
	for _, name := range opts.Registry.ListMaps() {
		def, err := opts.Registry.Get(name)
		if err != nil {
			continue
		}
		a.items = append(a.items, menuItem{name: name, kind: string(def.Kind()), desc: def.Description})
	}
	a.items = append(a.items, menuItem{name: DiffusionItem, kind: "walk", desc: "random walk out of the unit disc"})
	return a
}

func (a *App) Init() tea.Cmd {
	if a.view == viewScreen {
		return tea.Batch(a.listen(), tick(a.gen))
	}
	return a.listen()
}

func (a *App) listen() tea.Cmd {
	if a.opts.Logs == nil {
		return nil
	}
	return a.opts.Logs.Listen()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a, a.handleKey(msg)
	case tea.MouseMsg:
		if a.view == viewScreen {
			a.screen.Mouse(msg)
		}
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		if a.screen != nil {
			a.screen.Resize(msg.Width, msg.Height)
		}
	case TickMsg:
		if msg.Gen != a.gen || a.screen == nil {
			return a, nil
		}
		a.screen.Tick()
		return a, tick(a.gen)
	case logbus.LineMsg:
		a.logs.Append(string(msg))
		return a, a.listen()
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "L":
		if a.view == viewLogs {
			a.view = a.back
		} else {
			a.back, a.view = a.view, viewLogs
		}
		return nil
	case "t":
		a.setTheme(NextTheme(a.theme))
		return nil
	}

	switch a.view {
	case viewMenu:
		return a.menuKey(msg)
	case viewLogs:
		if msg.String() == "esc" || msg.String() == "q" {
			a.view = a.back
		}
		return nil
	}

	if msg.String() == "esc" {
		a.closeScreen()
		return nil
	}
	return a.screen.Update(msg)
}

func (a *App) menuKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		return tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}
	case "enter", " ":
		return a.Open(a.items[a.cursor].name)
	}
	return nil
}

func (a *App) setTheme(t Theme) {
	a.theme, a.st = t, newStyles(t)
	if a.screen != nil {
		a.screen.SetTheme(t)
	}
}

// Open builds the explorer for the named map (or DiffusionItem) and
// switches to it.
func (a *App) Open(name string) tea.Cmd {
	s, err := a.build(name)
	if err != nil {
		a.status = err.Error()
		a.opts.Logger.Error("open map", "map", name, "err", err)
		return nil
	}
	if a.width > 0 {
		s.Resize(a.width, a.height)
	}
	a.screen, a.view, a.status = s, viewScreen, ""
	a.gen++
	a.opts.Logger.Info("opened", "map", name)
	return tick(a.gen)
}

func (a *App) build(name string) (screen, error) {
	cfg := a.opts.Config
	if name == DiffusionItem {
		dc := cfg.Diffusion
		if dc.Particles == 0 {
			dc = diffusion.DefaultConfig()
		}
		return NewWalkModel(dc, a.opts, a.theme)
	}

	def, err := a.opts.Registry.Get(name)
	if err != nil {
		return nil, err
	}
	var constants map[string]float64
	selected := name == cfg.Map
	if selected {
		constants = cfg.Constants
	}

	switch def.Kind() {
	case maps.KindImage:
		path, size := "", 0
		if selected {
			path, size = cfg.Image.Path, cfg.Image.Size
		}
		p, err := a.opts.Registry.NewPermutation(name, path, size, constants)
		if err != nil {
			return nil, err
		}
		return NewImageModel(p, a.opts, a.theme), nil
	default:
		tr, err := a.opts.Registry.NewTrajectory(name, constants)
		if err != nil {
			return nil, err
		}
		steps := def.StepCount()
		if selected && cfg.Steps > 0 {
			steps = cfg.Steps
		}
		return NewOrbitModel(a.ctx, tr, steps, a.opts, a.theme)
	}
}

func (a *App) closeScreen() {
	a.screen = nil
	a.view = viewMenu
	a.gen++
}

func (a *App) View() string {
	switch a.view {
	case viewScreen:
		return a.screen.View()
	case viewLogs:
		return a.logs.View(a.st, a.width, a.height-2)
	}
	return a.viewMenu()
}

func (a *App) viewMenu() string {
	st := a.st
	var b strings.Builder
	b.WriteString("\n\n    " + st.header.Render("MAPSIM") + "\n    " + st.muted.Render("iterated map lab") + "\n    " + st.Separator(25) + "\n\n")
	for i, it := range a.items {
		desc := it.desc
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		name := fmt.Sprintf("%-22s", it.name)
		kind := fmt.Sprintf("%-9s", it.kind)
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s %s %s\n", st.key.Render("▸"), st.active.Render(name), st.value.Render(kind), st.value.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s %s\n", st.muted.Render(name), st.muted.Render(kind), st.muted.Render(desc)))
		}
	}
	if a.status != "" {
		b.WriteString("\n    " + st.errorMsg.Render(a.status) + "\n")
	}
	b.WriteString("\n    " + st.hints("j/k", "navigate", "enter", "open", "L", "log", "t", "theme", "q", "quit") + "\n")
	return b.String()
}

// Run starts the TUI. When startMap is non-empty its explorer opens
// directly instead of the menu.
func Run(ctx context.Context, opts Options, startMap string) error {
	app := NewApp(ctx, opts)
	if startMap != "" {
		app.Open(startMap)
		if app.view != viewScreen {
			return fmt.Errorf("open %s: %s", startMap, app.status)
		}
	}
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
