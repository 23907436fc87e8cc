package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/papo/composer"
)

var (
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	logLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // dim gray
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	headerStyle  = lipgloss.NewStyle().Bold(true)
	avatarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1)
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)  // cyan
	botStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true) // magenta
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	copiedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	selectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	topicStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	topicOnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("13"))
	typingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Italic(true)
)

var levelStyles = map[string]lipgloss.Style{
	"DEBUG": dimStyle,
	"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

var counterStyles = map[composer.Level]lipgloss.Style{
	composer.LevelNormal: dimStyle,
	composer.LevelWarm:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // yellow
	composer.LevelHot:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	composer.LevelOver:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}
