package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/papo/composer"
)

// submitMsg is emitted when the user presses Enter.
type submitMsg struct{}

// InputPanel is a single-line text input mirrored into the composer, with a
// status line for the counter, the typing indicator and the send hint.
type InputPanel struct {
	input     textinput.Model
	keystroke func(string) string
	state     composer.State
	busy      bool
	width     int
}

// NewInputPanel creates an input panel. keystroke receives the full text
// after every edit and returns the text to keep.
func NewInputPanel(prompt string, maxChars int, keystroke func(string) string) *InputPanel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = "Type a message…"
	ti.CharLimit = maxChars
	ti.Focus()
	return &InputPanel{input: ti, keystroke: keystroke}
}

func (p *InputPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		p.state = msg.snap.Composer
		p.busy = msg.snap.Busy()
		if p.input.Value() != p.state.Text {
			p.input.SetValue(p.state.Text)
		}
		return p, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			return p, func() tea.Msg { return submitMsg{} }
		}
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if v := p.input.Value(); v != before && p.keystroke != nil {
		if kept := p.keystroke(v); kept != v {
			p.input.SetValue(kept)
		}
	}
	return p, cmd
}

func (p *InputPanel) View() string {
	return p.input.View() + "\n" + p.status()
}

func (p *InputPanel) status() string {
	st := p.state
	counter := counterStyles[st.Level].Render(fmt.Sprintf("%d/%d", st.Count, st.Max))

	var hint string
	switch {
	case p.busy:
		hint = dimStyle.Render("waiting for reply…")
	case st.Typing:
		hint = typingStyle.Render("✎ typing")
	case st.CanSubmit:
		hint = dimStyle.Render("enter to send")
	default:
		hint = dimStyle.Render("ctrl+t sends a topic · ctrl+y copies · ctrl+l logs")
	}

	gap := p.width - lipgloss.Width(hint) - lipgloss.Width(counter)
	if gap < 1 {
		gap = 1
	}
	return hint + lipgloss.NewStyle().Width(gap).Render("") + counter
}

func (p *InputPanel) SetSize(width, height int) {
	p.width = width
	p.input.Width = max(width-lipgloss.Width(p.input.Prompt)-1, 1)
}
