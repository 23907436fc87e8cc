package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/papo/identity"
	"github.com/linanwx/papo/logger"
	"github.com/linanwx/papo/session"
)

const (
	defaultLogRatio = 0.3
	inputH          = 2 // input line + status line
	headerH         = 1
)

// App is the root bubbletea model that orchestrates panels and layout.
type App struct {
	sess  *session.Session
	label string
	keys  keyMap
	now   func() time.Time

	logPanel   *LogPanel
	chatPanel  *ChatPanel
	topicBar   *TopicBar
	inputPanel *InputPanel

	showLogs      bool
	width, height int
	logRatio      float64
}

// NewApp creates the root TUI model for sess. label names the responder in
// the header.
func NewApp(sess *session.Session, label string, showLogs bool) *App {
	snap := sess.Snapshot()
	return &App{
		sess:       sess,
		label:      label,
		keys:       defaultKeyMap(),
		now:        time.Now,
		logPanel:   NewLogPanel(sess.ID()),
		chatPanel:  NewChatPanel(),
		topicBar:   NewTopicBar(sess.Topics()),
		inputPanel: NewInputPanel("› ", snap.Composer.Max, sess.Keystroke),
		showLogs:   showLogs,
		logRatio:   defaultLogRatio,
	}
}

func (m *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.sync())
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case submitMsg:
		if _, err := m.sess.Submit(); err != nil && !errors.Is(err, session.ErrRejected) {
			logger.Warn("submit failed", "sessionID", m.sess.ID(), "err", err)
		}
		return m, m.sync()

	case RefreshMsg:
		return m, m.sync()

	case LogLineMsg:
		_, cmd := m.logPanel.Update(msg)
		if m.showLogs {
			m.logPanel.MarkSeen()
		}
		return m, cmd

	case spinner.TickMsg:
		_, cmd := m.chatPanel.Update(msg)
		return m, cmd
	}

	// Everything else (cursor blink) belongs to the input.
	_, cmd := m.inputPanel.Update(msg)
	return m, cmd
}

func (m *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		if m.showLogs {
			m.logPanel.MarkSeen()
		}
		m.recalcLayout()
		return nil

	case key.Matches(msg, m.keys.NextTopic):
		m.topicBar.Next()
		return nil

	case key.Matches(msg, m.keys.SendTopic):
		if i := m.topicBar.Selected(); i >= 0 {
			if _, err := m.sess.SelectTopic(i); err != nil {
				logger.Warn("topic not sent", "sessionID", m.sess.ID(), "topic", i, "err", err)
			}
		}
		return m.sync()

	case key.Matches(msg, m.keys.SelectUp):
		m.chatPanel.Move(-1)
		return nil

	case key.Matches(msg, m.keys.SelectDown):
		m.chatPanel.Move(1)
		return nil

	case key.Matches(msg, m.keys.Copy):
		if id, ok := m.chatPanel.Target(); ok {
			m.sess.Copy(id)
		}
		return m.sync()

	case key.Matches(msg, m.keys.Scroll):
		_, cmd := m.chatPanel.Update(msg)
		return cmd
	}

	_, cmd := m.inputPanel.Update(msg)
	return tea.Batch(cmd, m.sync())
}

// sync pushes a fresh snapshot to every panel that renders session state.
func (m *App) sync() tea.Cmd {
	msg := snapshotMsg{snap: m.sess.Snapshot()}
	_, c1 := m.chatPanel.Update(msg)
	_, c2 := m.inputPanel.Update(msg)
	_, c3 := m.topicBar.Update(msg)
	return tea.Batch(c1, c2, c3)
}

func (m *App) View() string {
	if m.width == 0 || m.height == 0 {
		return "initializing..."
	}

	sep := separatorStyle.Render(strings.Repeat("─", m.width))

	rows := []string{m.header(), sep}
	if m.showLogs {
		rows = append(rows, m.logPanel.View(), sep)
	}
	rows = append(rows, m.chatPanel.View(), sep)
	if m.topicBar.Height() > 0 {
		rows = append(rows, m.topicBar.View())
	}
	rows = append(rows, m.inputPanel.View())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *App) header() string {
	id := m.sess.Identity()
	left := headerStyle.Render(identity.Greeting(m.now()) + ", " + id.FirstName())
	right := dimStyle.Render(m.label) + " " + avatarStyle.Render(id.Initials())
	if n := m.logPanel.Unseen(); n > 0 && !m.showLogs {
		right = levelStyles["WARN"].Render(fmt.Sprintf("⚠ %d", n)) + " " + right
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m *App) recalcLayout() {
	seps := 2
	if m.showLogs {
		seps++
	}
	usable := max(m.height-headerH-inputH-m.topicBar.Height()-seps, 2)

	chatH := usable
	if m.showLogs {
		logH := max(int(float64(usable)*m.logRatio), 1)
		chatH = max(usable-logH, 1)
		m.logPanel.SetSize(m.width, logH)
	}
	m.chatPanel.SetSize(m.width, chatH)
	m.topicBar.SetSize(m.width, m.topicBar.Height())
	m.inputPanel.SetSize(m.width, inputH)
}
