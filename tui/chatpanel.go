package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/papo/conversation"
	"github.com/linanwx/papo/session"
)

const responderLabel = "papo"

// ChatPanel displays the transcript in a scrollable viewport. One message
// can be selected for copying.
type ChatPanel struct {
	viewport viewport.Model
	spinner  spinner.Model
	width    int

	snap     session.Snapshot
	selected int // index into snap.Messages, -1 when following the tail
	spinning bool
}

// NewChatPanel creates a chat panel.
func NewChatPanel() *ChatPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &ChatPanel{
		viewport: vp,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(botStyle)),
		selected: -1,
	}
}

func (p *ChatPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		p.snap = msg.snap
		if p.selected >= len(p.snap.Messages) {
			p.selected = -1
		}
		p.render()
		if p.snap.Busy() && !p.spinning {
			p.spinning = true
			return p, p.spinner.Tick
		}
		return p, nil

	case spinner.TickMsg:
		if !p.snap.Busy() {
			p.spinning = false
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		p.render()
		return p, cmd
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *ChatPanel) View() string {
	return p.viewport.View()
}

func (p *ChatPanel) SetSize(width, height int) {
	p.width = width
	p.viewport.Width = width
	p.viewport.Height = height
	p.render()
}

// Move shifts the selection by delta, starting from the newest message.
func (p *ChatPanel) Move(delta int) {
	n := len(p.snap.Messages)
	if n == 0 {
		return
	}
	if p.selected < 0 {
		p.selected = n
	}
	p.selected = min(max(p.selected+delta, 0), n-1)
	p.render()
}

// Target returns the message a copy applies to: the selection, or the
// newest message when nothing is selected.
func (p *ChatPanel) Target() (int64, bool) {
	msgs := p.snap.Messages
	if len(msgs) == 0 {
		return 0, false
	}
	if p.selected >= 0 {
		return msgs[p.selected].ID, true
	}
	return msgs[len(msgs)-1].ID, true
}

func (p *ChatPanel) render() {
	var b strings.Builder
	for i, m := range p.snap.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.renderMessage(m, i == p.selected))
	}
	if p.snap.Pending != nil {
		if len(p.snap.Messages) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(botStyle.Render(responderLabel) + " " + p.spinner.View() + typingStyle.Render(" typing…"))
	}
	p.viewport.SetContent(b.String())
	if p.selected < 0 {
		p.viewport.GotoBottom()
	}
}

func (p *ChatPanel) renderMessage(m conversation.Message, selected bool) string {
	var head []string
	if selected {
		head = append(head, selectStyle.Render("▌"))
	}
	if m.Sender == conversation.SenderUser {
		head = append(head, userStyle.Render(p.snap.Identity.AvatarInitials()))
	} else {
		head = append(head, botStyle.Render(responderLabel))
	}
	head = append(head, dimStyle.Render(m.CreatedAt.Format("15:04")))
	if m.State == conversation.StateFailed {
		head = append(head, failedStyle.Render("! not delivered"))
	}
	if m.ID == p.snap.CopiedID {
		head = append(head, copiedStyle.Render("✓ copied"))
	}

	body := m.Content.PlainText()
	if p.width > 2 {
		body = lipgloss.NewStyle().Width(p.width - 2).Render(body)
	}
	return strings.Join(head, " ") + "\n" + indent(body, "  ")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
