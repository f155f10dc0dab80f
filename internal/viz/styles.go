package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles are the lipgloss styles derived from one theme.
type styles struct {
	theme    Theme
	canvas   lipgloss.Style
	panel    lipgloss.Style
	header   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	active   lipgloss.Style
	muted    lipgloss.Style
	key      lipgloss.Style
	graph    lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	errorMsg lipgloss.Style
	high     lipgloss.Style
	mid      lipgloss.Style
	low      lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		theme:    t,
		canvas:   lipgloss.NewStyle().Padding(1, 2),
		panel:    lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(42),
		header:   lipgloss.NewStyle().Foreground(t.Secondary).Bold(true).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		active:   lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(t.Muted),
		key:      lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		graph:    lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		running:  lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		paused:   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		errorMsg: lipgloss.NewStyle().Foreground(t.Error),
		high:     lipgloss.NewStyle().Foreground(t.Success),
		mid:      lipgloss.NewStyle().Foreground(t.Warning),
		low:      lipgloss.NewStyle().Foreground(t.Error),
	}
}

// row renders a label/value pair on one line.
func (s styles) row(label, format string, args ...any) string {
	return s.label.Render(label) + s.value.Render(fmt.Sprintf(format, args...)) + "\n"
}

// hints renders "key action" pairs separated by two spaces.
func (s styles) hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(s.key.Render(pairs[i]) + s.muted.Render(" "+pairs[i+1]))
	}
	return b.String()
}

// ProgressBar renders a bar filled to percent of width.
func (s styles) ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case percent > 0.8:
		return s.high.Render(bar)
	case percent > 0.4:
		return s.mid.Render(bar)
	}
	return s.low.Render(bar)
}

// SparklineChart renders the most recent width values as a sparkline.
func (s styles) SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		c := string(chars[int(norm*float64(len(chars)-1))])
		switch {
		case norm > 0.7:
			b.WriteString(s.high.Render(c))
		case norm > 0.3:
			b.WriteString(s.mid.Render(c))
		default:
			b.WriteString(s.low.Render(c))
		}
	}
	return b.String()
}

// Separator draws a centred diamond rule.
func (s styles) Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return s.muted.Render(left + " ◆ " + right)
}
