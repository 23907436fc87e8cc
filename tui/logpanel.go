package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultMaxLogLines = 500

// logEntry is one slog text line split into its parts.
type logEntry struct {
	time  string // HH:MM:SS, empty when the line has no time
	level string
	msg   string
	attrs [][2]string
}

// LogPanel shows the session's log lines, coloured by level, with the
// session's own id stripped since every line carries it.
type LogPanel struct {
	viewport  viewport.Model
	lines     []string
	maxLines  int
	sessionID string
	unseen    int // warnings and errors since the panel was last shown
}

// NewLogPanel creates a log panel for sessionID.
func NewLogPanel(sessionID string) *LogPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &LogPanel{
		viewport:  vp,
		maxLines:  defaultMaxLogLines,
		sessionID: sessionID,
	}
}

func (p *LogPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case LogLineMsg:
		line := strings.TrimRight(msg.Line, "\n")
		if line == "" {
			return p, nil
		}
		e, ok := parseLogLine(line)
		if !ok {
			p.append(logLineStyle.Render(line))
			return p, nil
		}
		if e.level == "WARN" || e.level == "ERROR" {
			p.unseen++
		}
		p.append(p.render(e))
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *LogPanel) append(line string) {
	p.lines = append(p.lines, line)
	if len(p.lines) > p.maxLines {
		p.lines = p.lines[len(p.lines)-p.maxLines:]
	}
	p.viewport.SetContent(strings.Join(p.lines, "\n"))
	p.viewport.GotoBottom()
}

func (p *LogPanel) render(e logEntry) string {
	parts := make([]string, 0, 3+len(e.attrs))
	if e.time != "" {
		parts = append(parts, logLineStyle.Render(e.time))
	}
	style, ok := levelStyles[e.level]
	if !ok {
		style = logLineStyle
	}
	parts = append(parts, style.Render(e.level), e.msg)
	for _, kv := range e.attrs {
		if kv[0] == "sessionID" && kv[1] == p.sessionID {
			continue
		}
		parts = append(parts, logLineStyle.Render(kv[0]+"=")+kv[1])
	}
	return strings.Join(parts, " ")
}

// Unseen returns how many warnings and errors arrived while hidden.
func (p *LogPanel) Unseen() int { return p.unseen }

// MarkSeen resets the Unseen count.
func (p *LogPanel) MarkSeen() { p.unseen = 0 }

func (p *LogPanel) View() string {
	return p.viewport.View()
}

func (p *LogPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
	p.viewport.GotoBottom()
}

// parseLogLine splits a slog text handler line. Lines without a level
// are reported as not parsed.
func parseLogLine(line string) (logEntry, bool) {
	var e logEntry
	for _, tok := range splitLogFields(line) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			return logEntry{}, false
		}
		if uq, err := strconv.Unquote(v); err == nil {
			v = uq
		}
		switch k {
		case "time":
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				e.time = t.Format("15:04:05")
			}
		case "level":
			e.level = v
		case "msg":
			e.msg = v
		default:
			e.attrs = append(e.attrs, [2]string{k, v})
		}
	}
	return e, e.level != ""
}

// splitLogFields splits on spaces outside double-quoted values.
func splitLogFields(line string) []string {
	var (
		fields  []string
		cur     strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}
