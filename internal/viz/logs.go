package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const logLines = 500

// LogPane keeps the most recent log lines for the log tab.
type LogPane struct {
	lines []string
}

func (p *LogPane) Append(line string) {
	p.lines = append(p.lines, line)
	if len(p.lines) > logLines {
		p.lines = append([]string(nil), p.lines[len(p.lines)-logLines:]...)
	}
}

func (p *LogPane) Len() int { return len(p.lines) }

// View shows the last height lines, clipped to width columns.
func (p *LogPane) View(st styles, width, height int) string {
	lines := p.lines
	if height > 0 && len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	var b strings.Builder
	b.WriteString(st.header.Render("LOG") + "\n")
	if len(lines) == 0 {
		b.WriteString(st.muted.Render("(no log lines yet)") + "\n")
	}
	style := lipgloss.NewStyle().MaxWidth(max(width, 20))
	for _, l := range lines {
		b.WriteString(style.Render(l) + "\n")
	}
	return b.String()
}
