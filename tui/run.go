package tui

import (
	"bytes"
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/papo/logger"
	"github.com/linanwx/papo/session"
)

// Options configures Run.
type Options struct {
	Session  session.Options
	Label    string
	ShowLogs bool
}

// Run opens a session and drives it in the terminal until the user quits.
// The session is torn down before Run returns.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := newNotifier()
	opts.Session.OnChange = n.notify

	sess, err := session.New(opts.Session)
	if err != nil {
		return err
	}
	defer sess.Close()

	app := NewApp(sess, opts.Label, opts.ShowLogs)
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	// Redirect logger output to the TUI log panel.
	logger.Intercept(n)
	defer logger.Restore()

	done := make(chan struct{})
	go func() {
		defer close(done)
		n.pump(ctx, program)
	}()

	_, runErr := program.Run()
	interrupted := ctx.Err() != nil
	cancel()
	<-done

	if runErr != nil && !interrupted {
		return fmt.Errorf("tui: %w", runErr)
	}
	return nil
}

const logQueueSize = 256

// notifier forwards session changes and log lines to the program. Both can
// originate inside Update, where a blocking Program.Send would deadlock, so
// they are queued and delivered by pump.
type notifier struct {
	changed chan struct{}
	lines   chan string
}

func newNotifier() *notifier {
	return &notifier{
		changed: make(chan struct{}, 1),
		lines:   make(chan string, logQueueSize),
	}
}

// notify flags a pending refresh; repeated calls coalesce.
func (n *notifier) notify() {
	select {
	case n.changed <- struct{}{}:
	default:
	}
}

// Write implements io.Writer for the logger. Lines are dropped when the
// queue is full.
func (n *notifier) Write(p []byte) (int, error) {
	// Split on newlines in case a single write contains multiple lines.
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		select {
		case n.lines <- string(line):
		default:
		}
	}
	return len(p), nil
}

func (n *notifier) pump(ctx context.Context, program *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.changed:
			program.Send(RefreshMsg{})
		case line := <-n.lines:
			program.Send(LogLineMsg{Line: line})
		}
	}
}
