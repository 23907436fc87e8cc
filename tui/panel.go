// Package tui renders a chat session in the terminal.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/papo/session"
)

// Panel is a composable TUI region with its own state, update logic, and view.
// The root App model orchestrates panels without knowing their internals.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// RefreshMsg asks the App to re-read the session after a change made off
// the UI goroutine (reply resolved, typing went idle, copy marker expired).
type RefreshMsg struct{}

// snapshotMsg fans the current session state out to the panels.
type snapshotMsg struct{ snap session.Snapshot }
