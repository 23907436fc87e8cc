package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	ToggleLogs key.Binding
	NextTopic  key.Binding
	SendTopic  key.Binding
	SelectUp   key.Binding
	SelectDown key.Binding
	Copy       key.Binding
	Scroll     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "toggle logs"),
		),
		NextTopic: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next topic"),
		),
		SendTopic: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "send topic"),
		),
		SelectUp: key.NewBinding(
			key.WithKeys("alt+up", "ctrl+p"),
			key.WithHelp("ctrl+p", "select previous"),
		),
		SelectDown: key.NewBinding(
			key.WithKeys("alt+down", "ctrl+n"),
			key.WithHelp("ctrl+n", "select next"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy message"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("pgup", "pgdown"),
			key.WithHelp("pgup/pgdn", "scroll"),
		),
	}
}
