package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TopicBar lists the suggested conversation starters on one line.
type TopicBar struct {
	topics   []string
	selected int
	busy     bool
	width    int
}

// NewTopicBar creates a bar over topics.
func NewTopicBar(topics []string) *TopicBar {
	return &TopicBar{topics: topics}
}

func (b *TopicBar) Update(msg tea.Msg) (Panel, tea.Cmd) {
	if msg, ok := msg.(snapshotMsg); ok {
		b.busy = msg.snap.Busy()
	}
	return b, nil
}

func (b *TopicBar) View() string {
	if len(b.topics) == 0 {
		return ""
	}
	parts := make([]string, 0, len(b.topics)+1)
	parts = append(parts, dimStyle.Render("topics:"))
	for i, t := range b.topics {
		switch {
		case b.busy:
			parts = append(parts, dimStyle.Render(t))
		case i == b.selected:
			parts = append(parts, topicOnStyle.Render(" "+t+" "))
		default:
			parts = append(parts, topicStyle.Render(t))
		}
	}
	line := strings.Join(parts, dimStyle.Render(" · "))
	if b.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(b.width).Render(line)
	}
	return line
}

func (b *TopicBar) SetSize(width, _ int) {
	b.width = width
}

// Next cycles the highlighted topic.
func (b *TopicBar) Next() {
	if len(b.topics) > 0 {
		b.selected = (b.selected + 1) % len(b.topics)
	}
}

// Selected returns the highlighted topic index, or -1 when there are none.
func (b *TopicBar) Selected() int {
	if len(b.topics) == 0 {
		return -1
	}
	return b.selected
}

// Height returns the lines the bar occupies.
func (b *TopicBar) Height() int {
	if len(b.topics) == 0 {
		return 0
	}
	return 1
}
