package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/linanwx/papo/identity"
	"github.com/linanwx/papo/responder"
	"github.com/linanwx/papo/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memClipboard struct {
	mu   sync.Mutex
	text string
}

func (m *memClipboard) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

func (m *memClipboard) get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

func newTestApp(t *testing.T, cb *memClipboard) (*App, *session.Session) {
	t.Helper()
	sess, err := session.New(session.Options{
		Identity: identity.Identity{Name: "Ana Lima", Email: "ana@example.com"},
		Client: responder.ClientFunc(func(_ context.Context, prompt string) (string, error) {
			return "echo: " + prompt, nil
		}),
		Topics:    []string{"first topic", "second topic"},
		Clock:     clockwork.NewFakeClock(),
		Clipboard: cb,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sess.Close)

	app := NewApp(sess, "test", false)
	app.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local) }
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return app, sess
}

func typeText(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestTypingMirrorsComposer(t *testing.T) {
	app, sess := newTestApp(t, &memClipboard{})

	typeText(app, "hello")
	st := sess.Snapshot().Composer
	if st.Text != "hello" || !st.Typing || st.Count != 5 {
		t.Fatalf("composer = %+v", st)
	}
	if !strings.Contains(app.View(), "5/75") {
		t.Fatalf("View() lacks the counter:\n%s", app.View())
	}
}

func TestSubmitShowsReply(t *testing.T) {
	app, sess := newTestApp(t, &memClipboard{})

	typeText(app, "ping")
	app.Update(submitMsg{})
	if sess.Snapshot().Composer.Text != "" {
		t.Fatal("draft not cleared after submit")
	}

	require.Eventually(t, func() bool { return len(sess.Snapshot().Messages) == 2 }, time.Second, 5*time.Millisecond)
	app.Update(RefreshMsg{})

	view := app.View()
	for _, want := range []string{"ping", "echo: ping", "AL", "Good morning", "Ana"} {
		if !strings.Contains(view, want) {
			t.Fatalf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestEnterEmitsSubmit(t *testing.T) {
	app, _ := newTestApp(t, &memClipboard{})

	_, cmd := app.inputPanel.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Enter produced no command")
	}
	if _, ok := cmd().(submitMsg); !ok {
		t.Fatal("Enter did not emit submitMsg")
	}
}

func TestTopicKeys(t *testing.T) {
	app, sess := newTestApp(t, &memClipboard{})

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlT})

	require.Eventually(t, func() bool { return len(sess.Snapshot().Messages) == 2 }, time.Second, 5*time.Millisecond)
	if got := sess.Snapshot().Messages[0].Content.Raw(); got != "second topic" {
		t.Fatalf("sent topic = %q, want %q", got, "second topic")
	}
}

func TestCopyKeyCopiesSelection(t *testing.T) {
	cb := &memClipboard{}
	app, sess := newTestApp(t, cb)

	typeText(app, "one")
	app.Update(submitMsg{})
	require.Eventually(t, func() bool { return len(sess.Snapshot().Messages) == 2 }, time.Second, 5*time.Millisecond)
	app.Update(RefreshMsg{})

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	if cb.get() != "echo: one" {
		t.Fatalf("clipboard = %q, want newest message", cb.get())
	}

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	if cb.get() != "one" {
		t.Fatalf("clipboard = %q, want selected message", cb.get())
	}
	if !strings.Contains(app.View(), "✓ copied") {
		t.Fatal("View() lacks the copied marker")
	}
}

func TestToggleLogs(t *testing.T) {
	app, _ := newTestApp(t, &memClipboard{})

	app.Update(LogLineMsg{Line: "level=INFO msg=hello-log"})
	if strings.Contains(app.View(), "hello-log") {
		t.Fatal("log panel visible before toggle")
	}
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if !strings.Contains(app.View(), "hello-log") {
		t.Fatalf("log panel hidden after toggle:\n%s", app.View())
	}
}

func TestQuitKey(t *testing.T) {
	app, _ := newTestApp(t, &memClipboard{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("Esc produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("Esc did not quit")
	}
}

func TestNotifierNeverBlocks(t *testing.T) {
	n := newNotifier()
	for range 3 {
		n.notify()
	}
	if len(n.changed) != 1 {
		t.Fatalf("pending refreshes = %d, want 1", len(n.changed))
	}

	for range logQueueSize + 10 {
		if _, err := n.Write([]byte("a\nb\n")); err != nil {
			t.Fatal(err)
		}
	}
	if len(n.lines) != logQueueSize {
		t.Fatalf("queued lines = %d, want %d", len(n.lines), logQueueSize)
	}
}
