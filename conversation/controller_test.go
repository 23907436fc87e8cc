package conversation

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/linanwx/papo/composer"
	"github.com/linanwx/papo/responder"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClipboard struct {
	mu     sync.Mutex
	writes []string
	err    error
}

func (f *fakeClipboard) WriteAll(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, text)
	return nil
}

func (f *fakeClipboard) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return ""
	}
	return f.writes[len(f.writes)-1]
}

// gatedClient blocks each call until a reply is released or ctx ends.
type gatedClient struct {
	release chan string
	calls   atomic.Int32
}

func newGatedClient() *gatedClient {
	return &gatedClient{release: make(chan string)}
}

func (g *gatedClient) Generate(ctx context.Context, _ string) (string, error) {
	g.calls.Add(1)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case reply := <-g.release:
		return reply, nil
	}
}

func echo(reply string) responder.Client {
	return responder.ClientFunc(func(context.Context, string) (string, error) {
		return reply, nil
	})
}

func wait(t *testing.T, turn *Turn) {
	t.Helper()
	select {
	case <-turn.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("turn %d/%d never resolved", turn.UserID, turn.ReplyID)
	}
}

func newTestController(t *testing.T, client responder.Client, opts ...ControllerOption) (*Controller, *Store) {
	t.Helper()
	store := NewStore()
	base := []ControllerOption{WithClipboard(&fakeClipboard{}), WithClock(clockwork.NewFakeClock())}
	c := NewController(store, client, append(base, opts...)...)
	t.Cleanup(c.Close)
	return c, store
}

func TestHandleSendAppendsUserThenReply(t *testing.T) {
	c, store := newTestController(t, echo("pong"))

	turn, err := c.HandleSend("ping")
	if err != nil {
		t.Fatalf("HandleSend() error = %v", err)
	}
	wait(t, turn)

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
	if all[0].ID != turn.UserID || all[0].Sender != SenderUser || all[0].State != StateSent || all[0].Content.Raw() != "ping" {
		t.Fatalf("user message = %+v", all[0])
	}
	if all[1].ID != turn.ReplyID || all[1].Sender != SenderResponder || all[1].State != StateDelivered || all[1].Content.Raw() != "pong" {
		t.Fatalf("reply = %+v", all[1])
	}
	if _, ok := store.Pending(); ok {
		t.Fatal("reply slot left reserved")
	}
	if c.Busy() {
		t.Fatal("Busy() after resolution")
	}
	reply, ok := turn.Reply()
	if !ok || reply.ID != turn.ReplyID || turn.Err() != nil {
		t.Fatalf("turn.Reply() = %+v, %v; err %v", reply, ok, turn.Err())
	}
}

func TestSimulatedHelloScenario(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sim := responder.NewSimulated(0, nil, clock)
	c, store := newTestController(t, sim, WithClock(clock))

	turn, err := c.HandleSend("Hello")
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := store.Pending(); !ok || p.State != StatePendingResponse {
		t.Fatalf("Pending() = %+v, %v; want pendingResponse", p, ok)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clock.Advance(responder.DefaultDelay)
	wait(t, turn)

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
	if !slices.Contains(responder.DefaultPhrases, all[1].Content.Raw()) {
		t.Fatalf("reply %q is not a canned phrase", all[1].Content.Raw())
	}
}

func TestSecondSendWhilePendingIsBusy(t *testing.T) {
	client := newGatedClient()
	c, store := newTestController(t, client)

	first, err := c.HandleSend("one")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Busy() {
		t.Fatal("Busy() = false with a reply pending")
	}
	if _, err := c.HandleSend("two"); !errors.Is(err, ErrBusy) {
		t.Fatalf("second HandleSend() error = %v, want ErrBusy", err)
	}
	if _, err := c.SelectTopic("topic"); !errors.Is(err, ErrBusy) {
		t.Fatalf("SelectTopic() while pending error = %v, want ErrBusy", err)
	}
	if store.Len() != 1 {
		t.Fatalf("rejected send appended: Len() = %d", store.Len())
	}
	if p, ok := store.Pending(); !ok || p.ID != first.ReplyID {
		t.Fatalf("Pending() = %+v, %v", p, ok)
	}

	client.release <- "done"
	wait(t, first)
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
	if n := client.calls.Load(); n != 1 {
		t.Fatalf("responder called %d times, want 1", n)
	}
}

func TestEmptyMessageIsRejected(t *testing.T) {
	c, store := newTestController(t, echo("x"))

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := c.HandleSend(text); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("HandleSend(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}
}

func TestFailureAppendsFallback(t *testing.T) {
	boom := errors.New("backend down")
	c, store := newTestController(t,
		responder.ClientFunc(func(context.Context, string) (string, error) { return "", boom }),
		WithFallbackText("try later"),
	)
	comp := composer.New(composer.WithGate(c.Busy), composer.WithClock(clockwork.NewFakeClock()))
	defer comp.Close()

	turn, err := c.HandleSend("hi")
	if err != nil {
		t.Fatal(err)
	}
	wait(t, turn)

	if !errors.Is(turn.Err(), boom) {
		t.Fatalf("turn.Err() = %v, want %v", turn.Err(), boom)
	}
	all := store.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
	failed := 0
	for _, m := range all {
		if m.State == StateFailed {
			failed++
		}
	}
	if failed != 1 || all[1].Content.Raw() != "try later" || all[1].Sender != SenderResponder {
		t.Fatalf("reply = %+v, failed count %d", all[1], failed)
	}
	if _, ok := store.Pending(); ok {
		t.Fatal("failed turn left a pending placeholder")
	}

	comp.Keystroke("again")
	if !comp.State().CanSubmit {
		t.Fatal("composer still blocked after a failed turn")
	}
}

func TestEmptyReplyIsFailure(t *testing.T) {
	c, store := newTestController(t, echo("  "))

	turn, _ := c.HandleSend("hi")
	wait(t, turn)

	if !errors.Is(turn.Err(), errEmptyReply) {
		t.Fatalf("turn.Err() = %v, want errEmptyReply", turn.Err())
	}
	if last, _ := store.LastMessage(); last.State != StateFailed || last.Content.Raw() != DefaultFallbackText {
		t.Fatalf("LastMessage() = %+v", last)
	}
}

func TestTimeoutIsFailure(t *testing.T) {
	c, store := newTestController(t, newGatedClient(), WithTimeout(20*time.Millisecond))

	turn, _ := c.HandleSend("slow")
	wait(t, turn)

	if !errors.Is(turn.Err(), context.DeadlineExceeded) {
		t.Fatalf("turn.Err() = %v, want deadline exceeded", turn.Err())
	}
	if last, _ := store.LastMessage(); last.State != StateFailed {
		t.Fatalf("LastMessage().State = %v, want failed", last.State)
	}
}

func TestMarkdownReplyIsRich(t *testing.T) {
	c, store := newTestController(t, echo("**bold** move"), WithMarkdown(true))

	turn, _ := c.HandleSend("hi")
	wait(t, turn)

	last, _ := store.LastMessage()
	if !last.Content.IsRich() {
		t.Fatalf("reply not rendered: %+v", last)
	}
	if got := last.Content.PlainText(); got != "bold move" {
		t.Fatalf("PlainText() = %q, want %q", got, "bold move")
	}
}

func TestPlainReplyStaysPlainWithMarkdown(t *testing.T) {
	c, store := newTestController(t, echo("just words"), WithMarkdown(true))

	turn, _ := c.HandleSend("hi")
	wait(t, turn)

	if last, _ := store.LastMessage(); last.Content.IsRich() {
		t.Fatal("plain reply rendered as rich content")
	}
}

func TestIDsIncreaseAndSendersAlternate(t *testing.T) {
	c, store := newTestController(t, echo("ok"))

	if _, err := c.Greet("welcome"); err != nil {
		t.Fatal(err)
	}
	for _, text := range []string{"a", "b", "c"} {
		turn, err := c.HandleSend(text)
		if err != nil {
			t.Fatal(err)
		}
		wait(t, turn)
	}
	turn, err := c.SelectTopic("topic")
	if err != nil {
		t.Fatal(err)
	}
	wait(t, turn)

	all := store.All()
	if len(all) != 9 {
		t.Fatalf("len(All()) = %d, want 9", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Fatalf("ids not increasing at %d: %d then %d", i, all[i-1].ID, all[i].ID)
		}
	}
	for i := 1; i < len(all); i += 2 {
		if all[i].Sender != SenderUser || all[i+1].Sender != SenderResponder {
			t.Fatalf("turn at %d is %s/%s", i, all[i].Sender, all[i+1].Sender)
		}
	}
}

func TestCopyMessage(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cb := &fakeClipboard{}
	c, store := newTestController(t, echo("**rich** reply"), WithMarkdown(true), WithClipboard(cb), WithClock(clock))

	turn, _ := c.HandleSend("hello")
	wait(t, turn)
	before := store.All()

	if !c.CopyMessage(turn.ReplyID) {
		t.Fatal("CopyMessage() = false")
	}
	if cb.last() != "rich reply" {
		t.Fatalf("clipboard = %q, want plain projection", cb.last())
	}
	if !c.CopyMessage(turn.ReplyID) || cb.last() != "rich reply" {
		t.Fatal("second CopyMessage() differed")
	}
	if id, ok := c.CopiedID(); !ok || id != turn.ReplyID {
		t.Fatalf("CopiedID() = %d, %v", id, ok)
	}
	if after := store.All(); !slices.Equal(before, after) {
		t.Fatal("CopyMessage() modified the log")
	}

	clock.Advance(DefaultCopyFeedback)
	require.Eventually(t, func() bool {
		_, ok := c.CopiedID()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestCopyMessageFailures(t *testing.T) {
	cb := &fakeClipboard{}
	c, _ := newTestController(t, echo("x"), WithClipboard(cb))

	if c.CopyMessage(42) {
		t.Fatal("CopyMessage(unknown) = true")
	}

	turn, _ := c.HandleSend("hi")
	wait(t, turn)
	cb.mu.Lock()
	cb.err = errors.New("no display")
	cb.mu.Unlock()

	if c.CopyMessage(turn.UserID) {
		t.Fatal("CopyMessage() = true with a failing clipboard")
	}
	if _, ok := c.CopiedID(); ok {
		t.Fatal("copied marker set after a failed copy")
	}
}

func TestCloseDiscardsLateReply(t *testing.T) {
	client := newGatedClient()
	c, store := newTestController(t, client)

	turn, err := c.HandleSend("hi")
	if err != nil {
		t.Fatal(err)
	}
	require.Eventually(t, func() bool { return client.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.Close()
	c.Close()

	select {
	case <-turn.Done():
	default:
		t.Fatal("Close() returned before the turn settled")
	}
	if _, ok := turn.Reply(); ok {
		t.Fatal("reply reported after teardown")
	}
	if store.Len() != 1 {
		t.Fatalf("late reply appended: Len() = %d", store.Len())
	}
	if _, err := c.HandleSend("again"); !errors.Is(err, ErrClosed) {
		t.Fatalf("HandleSend() after Close error = %v, want ErrClosed", err)
	}
}

func TestObserverIsNotified(t *testing.T) {
	var n atomic.Int32
	c, _ := newTestController(t, echo("ok"), WithObserver(func() { n.Add(1) }))

	turn, _ := c.HandleSend("hi")
	wait(t, turn)

	// One notification for the send, one for the reply.
	require.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestMustPanics(t *testing.T) {
	require.Panics(t, func() { must(ErrOutOfOrder, "append") })
	require.NotPanics(t, func() { must(nil, "append") })
}
